package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/ui/keys"
	"github.com/tgienger/taskr/internal/ui/styles"
)

type mentionItem struct {
	mention models.Mention
}

func (i mentionItem) Title() string       { return mentions.TaskTitle(i.mention) }
func (i mentionItem) Description() string { return i.mention.Comment }
func (i mentionItem) FilterValue() string {
	return mentions.TaskTitle(i.mention) + " " + mentions.Author(i.mention)
}

type mentionDelegate struct {
	styles *styles.Styles
	width  int
}

func (d mentionDelegate) Height() int                               { return 2 }
func (d mentionDelegate) Spacing() int                              { return 1 }
func (d mentionDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d mentionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(mentionItem)
	if !ok {
		return
	}
	mention := it.mention

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var lineStyle lipgloss.Style
	if selected {
		lineStyle = d.styles.ListSelected.Width(width)
	} else {
		lineStyle = d.styles.ListItem.Width(width)
	}

	dot := "  "
	if !mention.IsRead() {
		dot = d.styles.Unread.Render("● ")
	}
	head := fmt.Sprintf("%s%s mentioned you in %s  %s",
		dot,
		d.styles.CommentAuthor.Render(mentions.Author(mention)),
		it.Title(),
		d.styles.TitleMuted.Render(mentions.DisplayDate(mention)),
	)

	// Single line preview; the full comment is shown in the task's panel
	preview := ansi.Truncate(strings.Join(strings.Fields(mention.Comment), " "), max(width-6, 4), "…")

	fmt.Fprintf(w, "%s\n%s",
		lineStyle.Render(head),
		lineStyle.Render("  "+highlightMentions(d.styles, preview)),
	)
}

// MentionListView lists the comments that mention the viewer
type MentionListView struct {
	deps     Deps
	list     list.Model
	delegate *mentionDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewMentionListView creates the mentions view
func NewMentionListView(deps Deps) *MentionListView {
	s := styles.NewStyles()

	delegate := &mentionDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Mentions"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return &MentionListView{
		deps:     deps,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

// Init refreshes the inbox; it runs every time the view is activated
func (v *MentionListView) Init() tea.Cmd {
	return refreshMentions(v.deps)
}

// Capturing reports whether keystrokes belong to the filter input or popup
func (v *MentionListView) Capturing() bool {
	return v.showHelpPopup || v.list.SettingFilter()
}

// Restyle rebuilds styles after a theme change
func (v *MentionListView) Restyle() {
	s := styles.NewStyles()
	v.styles = s
	v.delegate.styles = s
	v.list.Styles.Title = s.Title
}

func refreshMentions(deps Deps) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		err := deps.Inbox.Refresh(ctx)
		if err != nil {
			deps.Log.Error().Err(err).Msg("refresh mentions")
		}
		return MentionsLoadedMsg{Err: err}
	}
}

func (v *MentionListView) setItems() {
	ms := v.deps.Inbox.Mentions()
	items := make([]list.Item, len(ms))
	for i, m := range ms {
		items[i] = mentionItem{mention: m}
	}
	v.list.SetItems(items)
}

func (v *MentionListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-4)
		return v, nil

	case MentionsLoadedMsg:
		if v.deps.Inbox.Loaded() {
			v.loaded = true
			v.setItems()
		}
		if msg.Err != nil {
			return v, reportErr(msg.Err)
		}
		return v, nil

	case tea.KeyMsg:
		// Any key closes the help popup
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.list.SettingFilter() {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Reload):
			return v, refreshMentions(v.deps)
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(mentionItem); ok {
				open := OpenTaskMsg{TaskID: item.mention.TaskID, SK: item.mention.SK}
				return v, func() tea.Msg { return open }
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *MentionListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading mentions...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *MentionListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Mentions"),
		"",
		s.TitleMuted.Render("When someone writes @"+v.deps.Viewer.Name+" in a comment it shows up here"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *MentionListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open task • %s search • %s reload • %s tasks",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("1"),
		),
	)
}

func (v *MentionListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      " + s.HelpDesc.Render("open task and mark read"),
		s.HelpKey.Render("/") + "      " + s.HelpDesc.Render("search mentions"),
		s.HelpKey.Render("r") + "      " + s.HelpDesc.Render("reload"),
		s.HelpKey.Render("1") + "      " + s.HelpDesc.Render("tasks"),
		s.HelpKey.Render("q") + "      " + s.HelpDesc.Render("quit"),
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
