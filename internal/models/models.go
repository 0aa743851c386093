package models

import (
	"fmt"
	"strings"
)

// Status is the workflow state of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// ParseStatus validates a raw status value
func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if v == st {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (want todo, in-progress or done)", s)
}

// UnmarshalJSON keeps the closed enum: unknown values fall back to todo,
// which is what the server assigns when a task is created without one.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := unquote(b, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		v = StatusTodo
	}
	*s = v
	return nil
}

// Next returns the status after s, wrapping around
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusTodo
}

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority in display order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority validates a raw priority value
func ParsePriority(s string) (Priority, error) {
	v := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Priorities {
		if v == p {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q (want low, medium or high)", s)
}

// UnmarshalJSON falls back to medium for unknown values
func (p *Priority) UnmarshalJSON(b []byte) error {
	var raw string
	if err := unquote(b, &raw); err != nil {
		return err
	}
	v, err := ParsePriority(raw)
	if err != nil {
		v = PriorityMedium
	}
	*p = v
	return nil
}

// Next returns the priority after p, wrapping around
func (p Priority) Next() Priority {
	for i, pr := range Priorities {
		if pr == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

// DefaultCategory is shown for tasks created without a category
const DefaultCategory = "general"

// Participant is a user a task is shared with
type Participant struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// Task represents a single task as returned by the tasks API
type Task struct {
	ID             string        `json:"id"`
	TaskID         string        `json:"taskId"`
	PK             string        `json:"pk"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Category       string        `json:"category"`
	Status         Status        `json:"status"`
	Priority       Priority      `json:"priority"`
	OwnerID        string        `json:"ownerId"`
	OwnerName      string        `json:"ownerName"`
	CreatedBy      string        `json:"createdBy"`
	Participants   []Participant `json:"participants"`
	ParticipantIDs []string      `json:"participantIds"`
	CommentCount   int           `json:"commentCount"`
	CreatedAt      Timestamp     `json:"createdAt"`
	UpdatedAt      Timestamp     `json:"updatedAt"`
}

// PartitionKey returns the storage key the API expects alongside task mutations
func PartitionKey(id string) string {
	return "TASK#" + id
}

// Normalize derives the client identifiers from the server key. It runs once,
// when a task enters the working set.
func (t *Task) Normalize() {
	if t.TaskID != "" {
		t.ID = t.TaskID
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.PK = PartitionKey(t.ID)
}

// SortTime is the last-modified time, or the creation time when never modified
func (t Task) SortTime() Timestamp {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// Owner returns the display name of the task owner
func (t Task) Owner() string {
	if t.CreatedBy != "" {
		return t.CreatedBy
	}
	return t.OwnerName
}

// CategoryOrDefault returns the category, or "general" when unset
func (t Task) CategoryOrDefault() string {
	if t.Category == "" {
		return DefaultCategory
	}
	return t.Category
}

// Comment represents a comment on a task
type Comment struct {
	ID        string    `json:"commentId"`
	TaskID    string    `json:"taskId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"comment"`
	CreatedAt Timestamp `json:"createdAt"`
}

// MentionStatus is the read state of a mention
type MentionStatus string

const (
	MentionUnread MentionStatus = "UNREAD"
	MentionRead   MentionStatus = "READ"
)

// Mention is created when a comment references a user with @name
type Mention struct {
	SK          string        `json:"sk"`
	TaskID      string        `json:"taskId"`
	TaskTitle   string        `json:"taskTitle"`
	CommentID   string        `json:"commentId"`
	Comment     string        `json:"comment"`
	MentionedBy string        `json:"mentionedBy"`
	Status      MentionStatus `json:"status"`
	DisplayDate string        `json:"displayDate"`
	CreatedAt   Timestamp     `json:"createdAt"`
}

// IsRead reports whether the mention has been read
func (m Mention) IsRead() bool {
	return m.Status == MentionRead
}

// AuditEntry is an immutable record of a state-changing action
type AuditEntry struct {
	Action    string    `json:"action"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedBy string    `json:"createdBy"`
	User      string    `json:"user"`
	DeletedBy string    `json:"deletedBy"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Actor returns whoever performed the action, or "-"
func (a AuditEntry) Actor() string {
	for _, v := range []string{a.UpdatedBy, a.CreatedBy, a.User, a.DeletedBy} {
		if v != "" {
			return v
		}
	}
	return "-"
}

// When returns the update time, falling back to the creation time
func (a AuditEntry) When() Timestamp {
	if !a.UpdatedAt.IsZero() {
		return a.UpdatedAt
	}
	return a.CreatedAt
}

// Change returns "old → new" when both values are present
func (a AuditEntry) Change() (string, bool) {
	if a.OldValue == "" || a.NewValue == "" {
		return "", false
	}
	return a.OldValue + " → " + a.NewValue, true
}

// User is an account that can be mentioned
type User struct {
	Username string `json:"username"`
	Sub      string `json:"sub"`
}

// Viewer identifies the signed-in user for permission and display checks
type Viewer struct {
	Sub   string
	Name  string
	Admin bool
}
