// Package comments manages the per-task comment panels: their open state,
// the loaded thread, and the inline edit and delete-confirmation flows.
package comments

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tgienger/taskr/internal/models"
)

var (
	// ErrEmptyComment is returned for blank comment text; nothing is sent
	ErrEmptyComment = errors.New("comment cannot be empty")
	// ErrNotEditing is returned when saving without an active editor
	ErrNotEditing = errors.New("no comment is being edited")
	// ErrNoPendingDelete is returned when confirming without a request
	ErrNoPendingDelete = errors.New("no comment is awaiting deletion")
	// ErrUnknownComment is returned for ids not in the loaded thread
	ErrUnknownComment = errors.New("comment not found")
)

// PanelState is the lifecycle of a comment panel
type PanelState int

const (
	Closed PanelState = iota
	Opening
	Open
)

func (s PanelState) String() string {
	switch s {
	case Opening:
		return "opening"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// Backend is the subset of the API client used for comments
type Backend interface {
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	AddComment(ctx context.Context, taskID, text string) error
	EditComment(ctx context.Context, taskID, commentID, text string) error
	DeleteComment(ctx context.Context, taskID, commentID string) error
}

// Counter receives optimistic comment count changes. *tasks.State
// implements it.
type Counter interface {
	AdjustComments(taskID string, delta int)
}

// Panel is a snapshot of one task's comment panel
type Panel struct {
	TaskID        string
	State         PanelState
	Comments      []models.Comment
	Editing       string
	Draft         string
	PendingDelete string
}

// Find returns the loaded comment with the given id
func (p Panel) Find(commentID string) (models.Comment, bool) {
	i := slices.IndexFunc(p.Comments, func(c models.Comment) bool { return c.ID == commentID })
	if i < 0 {
		return models.Comment{}, false
	}
	return p.Comments[i], true
}

// Threads tracks every task's comment panel
type Threads struct {
	backend Backend
	counter Counter

	mu     sync.Mutex
	panels map[string]*Panel
}

// NewThreads creates the panel tracker. counter may be nil.
func NewThreads(b Backend, counter Counter) *Threads {
	return &Threads{backend: b, counter: counter, panels: make(map[string]*Panel)}
}

func (t *Threads) panel(taskID string) *Panel {
	p, ok := t.panels[taskID]
	if !ok {
		p = &Panel{TaskID: taskID}
		t.panels[taskID] = p
	}
	return p
}

// Toggle opens a closed panel or closes an open one. It reports whether the
// panel is now opening, in which case the caller should Load it.
func (t *Threads) Toggle(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.panel(taskID)
	if p.State != Closed {
		*p = Panel{TaskID: taskID}
		return false
	}
	p.State = Opening
	return true
}

// Settle marks an opening panel as fully open
func (t *Threads) Settle(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.panels[taskID]; ok && p.State == Opening {
		p.State = Open
	}
}

// IsOpen reports whether the panel is visible
func (t *Threads) IsOpen(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panels[taskID]
	return ok && p.State != Closed
}

// Panel returns a snapshot of the task's panel
func (t *Threads) Panel(taskID string) Panel {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panels[taskID]
	if !ok {
		return Panel{TaskID: taskID}
	}
	out := *p
	out.Comments = slices.Clone(p.Comments)
	return out
}

// Load re-fetches the thread, newest first. Results for a panel closed in
// the meantime are dropped.
func (t *Threads) Load(ctx context.Context, taskID string) error {
	fetched, err := t.backend.ListComments(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	SortNewestFirst(fetched)

	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panels[taskID]
	if !ok || p.State == Closed {
		return nil
	}
	p.Comments = fetched
	return nil
}

// Add posts a comment, reloads the panel and bumps the task's count
func (t *Threads) Add(ctx context.Context, taskID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyComment
	}
	if err := t.backend.AddComment(ctx, taskID, text); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	if t.counter != nil {
		t.counter.AdjustComments(taskID, 1)
	}
	return t.Load(ctx, taskID)
}

// StartEdit opens the inline editor seeded with the comment's text
func (t *Threads) StartEdit(taskID, commentID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.panel(taskID)
	c, ok := p.Find(commentID)
	if !ok {
		return "", ErrUnknownComment
	}
	p.Editing = commentID
	p.Draft = c.Text
	p.PendingDelete = ""
	return c.Text, nil
}

// SaveEdit replaces the edited comment's text and reloads. Blank text keeps
// the editor open and sends nothing.
func (t *Threads) SaveEdit(ctx context.Context, taskID, text string) error {
	text = strings.TrimSpace(text)

	t.mu.Lock()
	p := t.panel(taskID)
	commentID := p.Editing
	if commentID != "" {
		p.Draft = text
	}
	t.mu.Unlock()

	if commentID == "" {
		return ErrNotEditing
	}
	if text == "" {
		return ErrEmptyComment
	}

	if err := t.backend.EditComment(ctx, taskID, commentID, text); err != nil {
		return fmt.Errorf("edit comment: %w", err)
	}

	t.mu.Lock()
	p.Editing, p.Draft = "", ""
	t.mu.Unlock()
	return t.Load(ctx, taskID)
}

// CancelEdit discards the draft and reloads the panel
func (t *Threads) CancelEdit(ctx context.Context, taskID string) error {
	t.mu.Lock()
	p := t.panel(taskID)
	p.Editing, p.Draft = "", ""
	t.mu.Unlock()
	return t.Load(ctx, taskID)
}

// RequestDelete asks for confirmation before deleting a comment
func (t *Threads) RequestDelete(taskID, commentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.panel(taskID)
	if _, ok := p.Find(commentID); !ok {
		return ErrUnknownComment
	}
	p.PendingDelete = commentID
	return nil
}

// AbortDelete drops a pending delete request
func (t *Threads) AbortDelete(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.panels[taskID]; ok {
		p.PendingDelete = ""
	}
}

// ConfirmDelete deletes the pending comment, decrements the task's count and
// reloads the panel
func (t *Threads) ConfirmDelete(ctx context.Context, taskID string) error {
	t.mu.Lock()
	p := t.panel(taskID)
	commentID := p.PendingDelete
	p.PendingDelete = ""
	t.mu.Unlock()

	if commentID == "" {
		return ErrNoPendingDelete
	}
	if err := t.backend.DeleteComment(ctx, taskID, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if t.counter != nil {
		t.counter.AdjustComments(taskID, -1)
	}
	return t.Load(ctx, taskID)
}

// CanModify reports whether the viewer may edit or delete the comment
func CanModify(c models.Comment, v models.Viewer) bool {
	return v.Admin || (v.Sub != "" && c.UserID == v.Sub)
}

// SortNewestFirst orders comments by creation time, newest first
func SortNewestFirst(comments []models.Comment) {
	slices.SortStableFunc(comments, func(a, b models.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
