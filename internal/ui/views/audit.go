package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/ui/keys"
	"github.com/tgienger/taskr/internal/ui/styles"
)

// AuditView shows the admin-only change log
type AuditView struct {
	deps    Deps
	styles  *styles.Styles
	keys    keys.KeyMap
	entries []models.AuditEntry
	err     error
	loaded  bool
	cursor  int
	scrollY int
	width   int
	height  int
}

// NewAuditView creates the audit view
func NewAuditView(deps Deps) *AuditView {
	return &AuditView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
}

// Init fetches the log; it runs every time the view is activated
func (v *AuditView) Init() tea.Cmd {
	deps := v.deps
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		entries, err := audit.Fetch(ctx, deps.Audit, deps.Viewer)
		if err != nil && !errors.Is(err, audit.ErrAdminOnly) {
			deps.Log.Error().Err(err).Msg("load audit log")
		}
		return AuditLoadedMsg{Entries: entries, Err: err}
	}
}

// Capturing is always false; the audit view has no inputs
func (v *AuditView) Capturing() bool { return false }

// Restyle rebuilds styles after a theme change
func (v *AuditView) Restyle() {
	v.styles = styles.NewStyles()
}

func (v *AuditView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case AuditLoadedMsg:
		v.loaded = true
		v.err = msg.Err
		if msg.Err != nil {
			if errors.Is(msg.Err, audit.ErrAdminOnly) {
				return v, nil
			}
			return v, reportErr(msg.Err)
		}
		v.entries = msg.Entries
		v.cursor = clamp(v.cursor, 0, max(len(v.entries)-1, 0))
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(v.entries)-1 {
				v.cursor++
			}
		case key.Matches(msg, v.keys.Reload):
			return v, v.Init()
		}
	}
	return v, nil
}

// View renders the view
func (v *AuditView) View() string {
	s := v.styles

	var body string
	switch {
	case errors.Is(v.err, audit.ErrAdminOnly):
		body = s.Error.Render("The audit log is available to admins only.")
	case !v.loaded:
		body = s.TitleMuted.Render("Loading audit log...")
	case len(v.entries) == 0:
		body = s.TitleMuted.Render("No audit entries.")
	default:
		body = v.renderEntries()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Audit Log"),
		"",
		body,
		s.Help.Render(fmt.Sprintf("%s move • %s reload",
			s.HelpKey.Render("↑/↓"),
			s.HelpKey.Render("r"),
		)),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *AuditView) renderEntries() string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	// Each entry is two lines plus a blank separator
	visibleItems := max((v.height-8)/3, 1)
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	}
	if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}

	var items []string
	end := min(v.scrollY+visibleItems, len(v.entries))
	for i := v.scrollY; i < end; i++ {
		e := v.entries[i]
		action := strings.ToUpper(e.Action)
		if change, ok := e.Change(); ok {
			action += "  " + change
		}
		first := fmt.Sprintf("%s  %s", s.HelpKey.Render(action), audit.TaskTitle(e))
		second := s.TitleMuted.Render(fmt.Sprintf("%s • %s", e.Actor(), e.When().LocalString()))

		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		items = append(items, style.Render(first)+"\n"+style.Render(second))
	}
	if len(v.entries) > visibleItems {
		items = append(items, s.TitleMuted.Render(fmt.Sprintf("  %d/%d", v.cursor+1, len(v.entries))))
	}
	return strings.Join(items, "\n\n")
}
