// Package tasks owns the working set: every task visible to the session,
// ordered by recency, plus the filter currently applied to it.
package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/models"
)

var (
	// ErrEmptyTitle rejects blank titles before any request is made
	ErrEmptyTitle = errors.New("title cannot be empty")
	// ErrUnsafeTitle rejects titles carrying markup characters
	ErrUnsafeTitle = errors.New("title cannot contain HTML or special characters")
	// ErrNotFound is returned for ids outside the working set
	ErrNotFound = errors.New("task not found")
	// ErrNotCreated marks a create the backend rejected, as opposed to a
	// create that succeeded but whose reload failed
	ErrNotCreated = errors.New("task not created")
)

// Backend is the subset of the API client the state needs
type Backend interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, task api.NewTask) error
	UpdateTask(ctx context.Context, id string, patch api.TaskPatch) error
	DeleteTask(ctx context.Context, id, pk string) error
}

// MentionRefresher is refreshed after every load so the unread badge tracks
// the task list.
type MentionRefresher interface {
	Refresh(ctx context.Context) error
}

// Patch is a partial update; nil fields are left unchanged
type Patch struct {
	Status   *models.Status
	Priority *models.Priority
}

// IsZero reports whether the patch changes nothing
func (p Patch) IsZero() bool {
	return p.Status == nil && p.Priority == nil
}

// State is the working set of tasks
type State struct {
	backend  Backend
	mentions MentionRefresher
	log      zerolog.Logger

	mu      sync.RWMutex
	tasks   []models.Task
	filter  Filter
	issued  uint64
	applied uint64
	loaded  bool
}

// Option configures a State
type Option func(*State)

// WithMentions refreshes the given inbox after each load
func WithMentions(m MentionRefresher) Option {
	return func(s *State) { s.mentions = m }
}

// WithLogger sets the state's logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *State) { s.log = log }
}

// NewState creates an empty working set backed by b
func NewState(b Backend, opts ...Option) *State {
	s := &State{backend: b, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every visible task and replaces the working set. A response
// that arrives after a newer one has been applied is dropped.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	fetched, err := s.backend.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	for i := range fetched {
		fetched[i].Normalize()
	}
	SortByRecent(fetched)

	s.mu.Lock()
	if gen < s.applied {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", gen).Uint64("applied", s.applied).Msg("discarding stale task load")
		return nil
	}
	s.applied = gen
	s.tasks = fetched
	s.loaded = true
	s.mu.Unlock()

	if s.mentions != nil {
		if err := s.mentions.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh mentions: %w", err)
		}
	}
	return nil
}

// Loaded reports whether a load has completed
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Tasks returns a copy of the full working set
func (s *State) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Apply returns the tasks matching f without touching the working set
func (s *State) Apply(f Filter) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Apply(s.tasks, f)
}

// SetFilter stores f as the active filter
func (s *State) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// ClearFilter resets the active filter so the full set is visible
func (s *State) ClearFilter() {
	s.SetFilter(Filter{})
}

// Filter returns the active filter
func (s *State) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Visible returns the tasks matching the active filter
func (s *State) Visible() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Apply(s.tasks, s.filter)
}

// Categories returns the distinct categories of the working set
func (s *State) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Categories(s.tasks)
}

// Find returns the task with the given id
func (s *State) Find(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// ValidateTitle trims title and rejects empty or markup-bearing values
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if strings.ContainsAny(title, "<>") {
		return "", ErrUnsafeTitle
	}
	return title, nil
}

// Create validates the new task, sends it, then reloads
func (s *State) Create(ctx context.Context, task api.NewTask) error {
	title, err := ValidateTitle(task.Title)
	if err != nil {
		return err
	}
	task.Title = title
	task.Category = cmp.Or(strings.TrimSpace(task.Category), models.DefaultCategory)
	task.Status = cmp.Or(task.Status, models.StatusTodo)
	task.Priority = cmp.Or(task.Priority, models.PriorityMedium)

	if err := s.backend.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("%w: %w", ErrNotCreated, err)
	}
	return s.Load(ctx)
}

// Update sends a partial update then reloads the whole working set
func (s *State) Update(ctx context.Context, id string, p Patch) error {
	if p.IsZero() {
		return nil
	}
	patch := api.TaskPatch{PK: s.partitionKey(id), Status: p.Status, Priority: p.Priority}
	if err := s.backend.UpdateTask(ctx, id, patch); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return s.Load(ctx)
}

// Delete removes the task then reloads
func (s *State) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteTask(ctx, id, s.partitionKey(id)); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return s.Load(ctx)
}

// AdjustComments changes the cached comment count of a task by delta,
// never going below zero. The next load replaces it with the server value.
func (s *State) AdjustComments(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].CommentCount = max(0, s.tasks[i].CommentCount+delta)
			return
		}
	}
}

func (s *State) partitionKey(id string) string {
	if t, ok := s.Find(id); ok && t.PK != "" {
		return t.PK
	}
	return models.PartitionKey(id)
}

// SortByRecent orders tasks newest first by updated-or-created time. Ties keep
// their input order.
func SortByRecent(tasks []models.Task) {
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return b.SortTime().Compare(a.SortTime())
	})
}
