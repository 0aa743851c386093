package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskr/internal/config"
	"github.com/tgienger/taskr/internal/models"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
	Cursor      lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
	Cursor:      lipgloss.Color("#c0caf5"),
}

// TokyoDay is the light counterpart of TokyoNight
var TokyoDay = Theme{
	Name: "Tokyo Day",

	Background:    lipgloss.Color("#e1e2e7"),
	Foreground:    lipgloss.Color("#3760bf"),
	ForegroundDim: lipgloss.Color("#848cb5"),

	Primary:   lipgloss.Color("#2e7de9"),
	Secondary: lipgloss.Color("#9854f1"),
	Accent:    lipgloss.Color("#007197"),

	Success: lipgloss.Color("#587539"),
	Warning: lipgloss.Color("#8c6c3e"),
	Error:   lipgloss.Color("#f52a65"),
	Info:    lipgloss.Color("#2e7de9"),

	Border:      lipgloss.Color("#a8aecb"),
	BorderFocus: lipgloss.Color("#2e7de9"),
	Selection:   lipgloss.Color("#b7c1e3"),
	Cursor:      lipgloss.Color("#3760bf"),
}

// Current holds the active theme
var Current = TokyoNight

// CurrentName is the config name of the active theme
var CurrentName = config.ThemeDark

// ByName returns the theme for a config theme name
func ByName(name string) Theme {
	if name == config.ThemeLight {
		return TokyoDay
	}
	return TokyoNight
}

// SetTheme switches the active theme. Styles built afterwards use it.
func SetTheme(name string) {
	if name != config.ThemeLight {
		name = config.ThemeDark
	}
	CurrentName = name
	Current = ByName(name)
}

// Toggle flips between the dark and light themes and returns the new name
func Toggle() string {
	if CurrentName == config.ThemeDark {
		SetTheme(config.ThemeLight)
	} else {
		SetTheme(config.ThemeDark)
	}
	return CurrentName
}

// MaxWidth is the maximum content width for the app (classic terminal width)
const MaxWidth = 80

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Title
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Lists
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// Filter bar
	FilterBar    lipgloss.Style
	FilterInput  lipgloss.Style
	FilterButton lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Task item
	TaskTitle lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Status bar
	StatusBar lipgloss.Style
	Error     lipgloss.Style

	// Header
	Greeting  lipgloss.Style
	RoleAdmin lipgloss.Style
	RoleUser  lipgloss.Style
	Badge     lipgloss.Style
	NavTab    lipgloss.Style
	NavActive lipgloss.Style

	// Tasks owned by or shared with the viewer
	Mine lipgloss.Style

	// Comments
	Comment         lipgloss.Style
	CommentSelected lipgloss.Style
	CommentAuthor   lipgloss.Style
	Mention         lipgloss.Style

	// Mentions list
	Unread lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		FilterBar: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		FilterInput: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		FilterButton: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		TaskTitle: lipgloss.NewStyle().
			Foreground(t.Foreground),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),

		Greeting: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		RoleAdmin: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Secondary).
			Padding(0, 1).
			Bold(true),

		RoleUser: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.ForegroundDim).
			Padding(0, 1),

		Badge: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Error).
			Padding(0, 1).
			Bold(true),

		NavTab: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		NavActive: lipgloss.NewStyle().
			Foreground(t.Primary).
			Underline(true).
			Padding(0, 1).
			Bold(true),

		Mine: lipgloss.NewStyle().
			Foreground(t.Accent),

		Comment: lipgloss.NewStyle().
			Foreground(t.Foreground).
			PaddingLeft(2),

		CommentSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Primary).
			PaddingLeft(1),

		CommentAuthor: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		Mention: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),

		Unread: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),
	}
}

// Status returns the style for a task status
func Status(s models.Status) lipgloss.Style {
	t := Current
	switch s {
	case models.StatusDone:
		return lipgloss.NewStyle().Foreground(t.Success)
	case models.StatusInProgress:
		return lipgloss.NewStyle().Foreground(t.Info)
	default:
		return lipgloss.NewStyle().Foreground(t.ForegroundDim)
	}
}

// Priority returns the style for a task priority
func Priority(p models.Priority) lipgloss.Style {
	t := Current
	switch p {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	case models.PriorityMedium:
		return lipgloss.NewStyle().Foreground(t.Warning)
	default:
		return lipgloss.NewStyle().Foreground(t.ForegroundDim)
	}
}
