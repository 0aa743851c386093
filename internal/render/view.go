package render

import (
	"fmt"
	"time"

	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/comments"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/tasks"
)

// Greeting returns the time-of-day greeting shown in the header
func Greeting(name string, now time.Time) string {
	var g string
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		g = "Good Morning"
	case h >= 12 && h < 17:
		g = "Good Afternoon"
	case h >= 17 && h < 21:
		g = "Good Evening"
	default:
		g = "Working late"
	}
	return fmt.Sprintf("%s, %s", g, name)
}

// Role is the badge text for the viewer
func Role(v models.Viewer) string {
	if v.Admin {
		return "ADMIN"
	}
	return "USER"
}

// Header is the data shared by every page
type Header struct {
	Greeting string
	User     string
	Role     string
	Admin    bool
	Badge    string
	Theme    string
	Active   string
}

// NewHeader builds the page header for the viewer
func NewHeader(v models.Viewer, unread int, theme, active string, now time.Time) Header {
	return Header{
		Greeting: Greeting(v.Name, now),
		User:     v.Name,
		Role:     Role(v),
		Admin:    v.Admin,
		Badge:    mentions.Badge(unread),
		Theme:    theme,
		Active:   active,
	}
}

// TaskRow is one rendered task
type TaskRow struct {
	Index        int
	ID           string
	Title        string
	Description  string
	Category     string
	Status       string
	Priority     string
	Owner        string
	Yours        bool
	Mine         bool
	SharedWith   string
	Updated      string
	CommentCount int
	CanDelete    bool
}

// TaskRows maps tasks to display rows for the viewer
func TaskRows(ts []models.Task, v models.Viewer) []TaskRow {
	rows := make([]TaskRow, len(ts))
	for i, t := range ts {
		rows[i] = TaskRow{
			Index:        i + 1,
			ID:           t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Category:     t.CategoryOrDefault(),
			Status:       string(t.Status),
			Priority:     string(t.Priority),
			Owner:        t.Owner(),
			Yours:        tasks.IsOwner(t, v),
			Mine:         tasks.IsMine(t, v),
			SharedWith:   tasks.SharedWith(t),
			Updated:      t.SortTime().LocalString(),
			CommentCount: t.CommentCount,
			CanDelete:    tasks.CanDelete(t, v),
		}
	}
	return rows
}

// Option is a filter select option
type Option struct {
	Value    string
	Selected bool
}

func options[T ~string](values []T, selected T) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: string(v), Selected: v == selected}
	}
	return out
}

// TasksPage is the task list with its filter controls
type TasksPage struct {
	Header
	Rows       []TaskRow
	Total      int
	Filtered   bool
	Statuses   []Option
	Priorities []Option
	Categories []Option
}

// NewTasksPage applies f to the working set and builds the page
func NewTasksPage(h Header, working []models.Task, f tasks.Filter, v models.Viewer) TasksPage {
	return TasksPage{
		Header:     h,
		Rows:       TaskRows(tasks.Apply(working, f), v),
		Total:      len(working),
		Filtered:   !f.IsZero(),
		Statuses:   options(models.Statuses, f.Status),
		Priorities: options(models.Priorities, f.Priority),
		Categories: options(tasks.Categories(working), f.Category),
	}
}

// CommentRow is one rendered comment
type CommentRow struct {
	ID        string
	Author    string
	Body      []mentions.Segment
	When      string
	CanModify bool
}

// CommentsPage is a task with its comment thread
type CommentsPage struct {
	Header
	Task     TaskRow
	Comments []CommentRow
}

// NewCommentsPage builds the thread page; comments are sorted newest first
func NewCommentsPage(h Header, t models.Task, cs []models.Comment, v models.Viewer) CommentsPage {
	comments.SortNewestFirst(cs)
	rows := make([]CommentRow, len(cs))
	for i, c := range cs {
		rows[i] = CommentRow{
			ID:        c.ID,
			Author:    c.UserName,
			Body:      mentions.Segments(c.Text),
			When:      c.CreatedAt.LocalString(),
			CanModify: comments.CanModify(c, v),
		}
	}
	return CommentsPage{Header: h, Task: TaskRows([]models.Task{t}, v)[0], Comments: rows}
}

// MentionRow is one rendered mention
type MentionRow struct {
	SK        string
	TaskID    string
	Author    string
	TaskTitle string
	Body      []mentions.Segment
	Date      string
	Read      bool
}

// MentionsPage lists the viewer's mentions
type MentionsPage struct {
	Header
	Rows []MentionRow
}

// NewMentionsPage builds the mentions page
func NewMentionsPage(h Header, ms []models.Mention) MentionsPage {
	rows := make([]MentionRow, len(ms))
	for i, m := range ms {
		rows[i] = MentionRow{
			SK:        m.SK,
			TaskID:    m.TaskID,
			Author:    mentions.Author(m),
			TaskTitle: mentions.TaskTitle(m),
			Body:      mentions.Segments(m.Comment),
			Date:      mentions.DisplayDate(m),
			Read:      m.IsRead(),
		}
	}
	return MentionsPage{Header: h, Rows: rows}
}

// AuditRow is one rendered audit entry
type AuditRow struct {
	Index     int
	Action    string
	Change    string
	TaskTitle string
	Actor     string
	When      string
}

// AuditPage lists the audit log
type AuditPage struct {
	Header
	Rows []AuditRow
}

// NewAuditPage builds the audit page; entries are sorted newest first
func NewAuditPage(h Header, entries []models.AuditEntry) AuditPage {
	audit.SortRecent(entries)
	rows := make([]AuditRow, len(entries))
	for i, e := range entries {
		change, _ := e.Change()
		rows[i] = AuditRow{
			Index:     i + 1,
			Action:    e.Action,
			Change:    change,
			TaskTitle: audit.TaskTitle(e),
			Actor:     e.Actor(),
			When:      e.When().LocalString(),
		}
	}
	return AuditPage{Header: h, Rows: rows}
}
