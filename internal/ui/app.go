package ui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/auth"
	"github.com/tgienger/taskr/internal/db"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/ui/keys"
	"github.com/tgienger/taskr/internal/ui/styles"
	"github.com/tgienger/taskr/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewMentions
	ViewAudit
)

func (v View) String() string {
	switch v {
	case ViewMentions:
		return "mentions"
	case ViewAudit:
		return "audit"
	default:
		return "tasks"
	}
}

// ParseView maps a stored view name back to a View, defaulting to tasks
func ParseView(s string) View {
	switch s {
	case "mentions":
		return ViewMentions
	case "audit":
		return ViewAudit
	default:
		return ViewTasks
	}
}

// SessionExpiredMsg is sent when the session ends while the UI is running
type SessionExpiredMsg struct{}

// SettingsStore persists the theme and last view. *db.DB implements it.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Options configures the application
type Options struct {
	Deps   views.Deps
	Store  SettingsStore
	Theme  string
	Settle time.Duration
	Now    func() time.Time
}

type App struct {
	deps        views.Deps
	store       SettingsStore
	settle      time.Duration
	now         func() time.Time
	styles      *styles.Styles
	keys        keys.KeyMap
	currentView View
	taskList    *views.TaskListView
	mentionList *views.MentionListView
	auditView   *views.AuditView
	width       int
	height      int

	status    string
	statusErr bool
	expired   bool
}

// Creates a new application
func NewApp(o Options) *App {
	theme := o.Theme
	if o.Store != nil {
		if saved, err := o.Store.GetSetting(db.SettingTheme); err == nil && saved != "" {
			theme = saved
		}
	}
	styles.SetTheme(theme)

	if o.Now == nil {
		o.Now = time.Now
	}

	return &App{
		deps:        o.Deps,
		store:       o.Store,
		settle:      o.Settle,
		now:         o.Now,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		taskList:    views.NewTaskListView(o.Deps),
		mentionList: views.NewMentionListView(o.Deps),
		auditView:   views.NewAuditView(o.Deps),
	}
}

func (a *App) Init() tea.Cmd {
	last := ViewTasks
	if a.store != nil {
		if saved, err := a.store.GetSetting(db.SettingLastView); err == nil {
			last = ParseView(saved)
		}
	}

	cmds := []tea.Cmd{a.activate(last)}
	// The tasks view refreshes mentions as part of its load
	if a.currentView != ViewTasks {
		cmds = append(cmds, a.taskList.Init())
	}
	return tea.Batch(cmds...)
}

// activate switches views and loads the new view's data
func (a *App) activate(v View) tea.Cmd {
	if v == ViewAudit && !a.deps.Viewer.Admin {
		v = ViewTasks
	}
	a.currentView = v
	a.saveSetting(db.SettingLastView, v.String())

	var cmd tea.Cmd
	switch v {
	case ViewMentions:
		cmd = a.mentionList.Init()
	case ViewAudit:
		cmd = a.auditView.Init()
	default:
		cmd = a.taskList.Init()
	}
	return cmd
}

func (a *App) saveSetting(k, v string) {
	if a.store == nil {
		return
	}
	if err := a.store.SetSetting(k, v); err != nil {
		a.deps.Log.Warn().Err(err).Str("key", k).Msg("save setting")
	}
}

// bodySize is the space left for views below the header and above the status bar
func (a *App) bodySize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width, Height: max(a.height-3, 0)}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		body := a.bodySize()
		a.taskList.Update(body)
		a.mentionList.Update(body)
		a.auditView.Update(body)
		return a, nil

	case SessionExpiredMsg:
		a.expired = true
		return a, nil

	case views.ErrMsg:
		if errors.Is(msg.Err, api.ErrUnauthorized) || errors.Is(msg.Err, auth.ErrNotLoggedIn) {
			a.expired = true
			return a, nil
		}
		a.status = msg.Err.Error()
		a.statusErr = true
		return a, nil

	case views.StatusMsg:
		a.status = string(msg)
		a.statusErr = false
		return a, nil

	case views.OpenTaskMsg:
		return a, a.openTask(msg)

	// Async results belong to their view regardless of which one is showing
	case views.TasksLoadedMsg, views.CommentsLoadedMsg, views.CommentsSettledMsg,
		views.UsersLoadedMsg, views.FocusTaskMsg:
		_, cmd := a.taskList.Update(msg)
		return a, cmd

	case views.MentionsLoadedMsg:
		_, cmd := a.mentionList.Update(msg)
		return a, cmd

	case views.AuditLoadedMsg:
		_, cmd := a.auditView.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.expired {
			return a, tea.Quit
		}
		a.status = ""

		if !a.capturing() {
			switch {
			case key.Matches(msg, a.keys.Quit):
				return a, tea.Quit
			case key.Matches(msg, a.keys.Tasks):
				return a, a.activate(ViewTasks)
			case key.Matches(msg, a.keys.Mentions):
				return a, a.activate(ViewMentions)
			case key.Matches(msg, a.keys.Audit):
				if !a.deps.Viewer.Admin {
					return a, nil
				}
				return a, a.activate(ViewAudit)
			case key.Matches(msg, a.keys.Theme):
				a.toggleTheme()
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	case ViewMentions:
		_, cmd = a.mentionList.Update(msg)
	case ViewAudit:
		_, cmd = a.auditView.Update(msg)
	}

	return a, cmd
}

func (a *App) capturing() bool {
	switch a.currentView {
	case ViewMentions:
		return a.mentionList.Capturing()
	case ViewAudit:
		return a.auditView.Capturing()
	default:
		return a.taskList.Capturing()
	}
}

// openTask marks the mention read, shows the tasks view and, once the list
// has had time to settle, focuses the mentioned task
func (a *App) openTask(msg views.OpenTaskMsg) tea.Cmd {
	deps := a.deps
	markRead := func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		err := deps.Inbox.MarkRead(ctx, msg.SK)
		if err != nil {
			deps.Log.Error().Err(err).Str("sk", msg.SK).Msg("mark mention read")
		}
		return views.MentionsLoadedMsg{Err: err}
	}

	focus := tea.Tick(a.settle, func(time.Time) tea.Msg {
		return views.FocusTaskMsg{TaskID: msg.TaskID}
	})

	return tea.Batch(markRead, a.activate(ViewTasks), focus)
}

func (a *App) toggleTheme() {
	name := styles.Toggle()
	a.saveSetting(db.SettingTheme, name)
	a.styles = styles.NewStyles()
	a.taskList.Restyle()
	a.mentionList.Restyle()
	a.auditView.Restyle()
}

func (a *App) View() string {
	if a.expired {
		return a.renderExpired()
	}

	var body string
	switch a.currentView {
	case ViewMentions:
		body = a.mentionList.View()
	case ViewAudit:
		body = a.auditView.View()
	default:
		body = a.taskList.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		"",
		body,
		a.renderStatusBar(),
	)
}

func (a *App) renderHeader() string {
	s := a.styles
	h := render.NewHeader(a.deps.Viewer, a.deps.Inbox.Unread(), styles.CurrentName, a.currentView.String(), a.now())

	role := s.RoleUser.Render(h.Role)
	if h.Admin {
		role = s.RoleAdmin.Render(h.Role)
	}

	tab := func(v View, label string) string {
		if a.currentView == v {
			return s.NavActive.Render(label)
		}
		return s.NavTab.Render(label)
	}
	mentionsTab := tab(ViewMentions, "2 Mentions")
	if h.Badge != "" {
		mentionsTab += s.Badge.Render(h.Badge)
	}
	nav := []string{tab(ViewTasks, "1 Tasks"), mentionsTab}
	if h.Admin {
		nav = append(nav, tab(ViewAudit, "3 Audit"))
	}

	left := s.Greeting.Render(h.Greeting) + " " + role
	right := lipgloss.JoinHorizontal(lipgloss.Center, nav...) + s.TitleMuted.Render("  t: "+h.Theme)

	width := styles.ContentWidth(a.width)
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	header := left + strings.Repeat(" ", gap) + right
	return styles.CenterView(header, a.width, 1)
}

func (a *App) renderStatusBar() string {
	if a.status == "" {
		return ""
	}
	if a.statusErr {
		return a.styles.Error.Render("✗ " + a.status)
	}
	return a.styles.StatusBar.Render(a.status)
}

func (a *App) renderExpired() string {
	s := a.styles
	contentWidth := styles.ContentWidth(a.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Session Expired"),
		"",
		s.TitleMuted.Render("Your session has ended. Sign in again with:"),
		s.HelpKey.Render("taskr login"),
		"",
		s.TitleMuted.Render("Press any key to exit"),
	)

	centered := lipgloss.Place(contentWidth, a.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, a.width, a.height)
}

// Expired reports whether the session ended during the run
func (a *App) Expired() bool {
	return a.expired
}

// CurrentView returns the active view
func (a *App) CurrentView() View {
	return a.currentView
}
