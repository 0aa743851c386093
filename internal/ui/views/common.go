package views

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/comments"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/tasks"
	"github.com/tgienger/taskr/internal/ui/styles"
)

// panelAnimation is how long an opening comment panel stays in the opening state
const panelAnimation = 150 * time.Millisecond

// UserLister provides the accounts offered for @mention completion
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Deps are the services shared by every view
type Deps struct {
	Tasks    *tasks.State
	Threads  *comments.Threads
	Inbox    *mentions.Inbox
	Audit    audit.Backend
	Users    UserLister
	Viewer   models.Viewer
	Timeout  time.Duration
	Markdown bool
	Log      zerolog.Logger
}

// Context bounds a request by the configured timeout
func (d Deps) Context() (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d.Timeout)
}

// TasksLoadedMsg is sent after the working set was (re)loaded, possibly
// as part of a mutation
type TasksLoadedMsg struct {
	Err    error
	Status string

	// set when the message settles a create submitted from the form
	create bool
}

// CommentsLoadedMsg is sent after a comment panel was fetched or mutated
type CommentsLoadedMsg struct {
	TaskID string
	Err    error
}

// CommentsSettledMsg ends a panel's opening animation
type CommentsSettledMsg struct {
	TaskID string
}

// UsersLoadedMsg carries the accounts offered for @mention completion
type UsersLoadedMsg struct {
	users []models.User
	err   error
}

// MentionsLoadedMsg is sent after the inbox was refreshed
type MentionsLoadedMsg struct {
	Err error
}

// AuditLoadedMsg carries a fetched audit log
type AuditLoadedMsg struct {
	Entries []models.AuditEntry
	Err     error
}

// OpenTaskMsg asks the app to show the task a mention points at
type OpenTaskMsg struct {
	TaskID string
	SK     string
}

// FocusTaskMsg scrolls the task list to a task and opens its comments
type FocusTaskMsg struct {
	TaskID string
}

// ErrMsg reports a failure to the status bar
type ErrMsg struct {
	Err error
}

// StatusMsg shows a short notice in the status bar
type StatusMsg string

func reportErr(err error) tea.Cmd {
	return func() tea.Msg { return ErrMsg{Err: err} }
}

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// highlightMentions styles every @name token in text
func highlightMentions(s *styles.Styles, text string) string {
	var b strings.Builder
	for _, seg := range mentions.Segments(text) {
		if seg.Mention {
			b.WriteString(s.Mention.Render(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// markdown renders task descriptions, caching the renderer per width and theme
type markdown struct {
	width    int
	theme    string
	renderer *glamour.TermRenderer
}

func (m *markdown) render(input string, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width <= 0 {
		width = styles.MaxWidth
	}
	if m.renderer == nil || m.width != width || m.theme != styles.CurrentName {
		r, err := glamour.NewTermRenderer(
			glamour.WithWordWrap(width),
			glamour.WithStandardStyle(styles.CurrentName),
		)
		if err != nil {
			return input
		}
		m.renderer, m.width, m.theme = r, width, styles.CurrentName
	}
	out, err := m.renderer.Render(input)
	if err != nil {
		return input
	}
	return strings.Trim(out, "\n")
}
