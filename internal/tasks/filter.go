package tasks

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tgienger/taskr/internal/models"
)

// Filter holds three independent equality predicates. An empty field
// matches every task.
type Filter struct {
	Status   models.Status
	Priority models.Priority
	Category string
}

// IsZero reports whether no predicate is set
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches reports whether t satisfies every set predicate
func (f Filter) Matches(t models.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	// an empty category is displayed and cycled as the default one
	if f.Category != "" && t.CategoryOrDefault() != f.Category {
		return false
	}
	return true
}

func (f Filter) String() string {
	if f.IsZero() {
		return "all"
	}
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Priority != "" {
		parts = append(parts, "priority="+string(f.Priority))
	}
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	return strings.Join(parts, " ")
}

// ParseFilter builds a filter from raw values, validating the enums
func ParseFilter(status, priority, category string) (Filter, error) {
	var f Filter
	if status != "" {
		s, err := models.ParseStatus(status)
		if err != nil {
			return Filter{}, err
		}
		f.Status = s
	}
	if priority != "" {
		p, err := models.ParsePriority(priority)
		if err != nil {
			return Filter{}, err
		}
		f.Priority = p
	}
	f.Category = strings.TrimSpace(category)
	return f, nil
}

// Apply returns the tasks matching f in their original order
func Apply(tasks []models.Task, f Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the sorted distinct categories in tasks
func Categories(tasks []models.Task) []string {
	var out []string
	for _, t := range tasks {
		c := t.CategoryOrDefault()
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

// NextStatus cycles a status filter: all, then each status, then all again
func NextStatus(cur models.Status) models.Status {
	if cur == "" {
		return models.Statuses[0]
	}
	i := slices.Index(models.Statuses, cur)
	if i < 0 || i == len(models.Statuses)-1 {
		return ""
	}
	return models.Statuses[i+1]
}

// NextPriority cycles a priority filter the same way
func NextPriority(cur models.Priority) models.Priority {
	if cur == "" {
		return models.Priorities[0]
	}
	i := slices.Index(models.Priorities, cur)
	if i < 0 || i == len(models.Priorities)-1 {
		return ""
	}
	return models.Priorities[i+1]
}

// NextCategory cycles through the known categories
func NextCategory(cur string, categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	if cur == "" {
		return categories[0]
	}
	i := slices.Index(categories, cur)
	if i < 0 || i == len(categories)-1 {
		return ""
	}
	return categories[i+1]
}

// IsMine reports whether the viewer participates in the task
func IsMine(t models.Task, v models.Viewer) bool {
	return v.Sub != "" && slices.Contains(t.ParticipantIDs, v.Sub)
}

// IsOwner reports whether the viewer owns the task
func IsOwner(t models.Task, v models.Viewer) bool {
	return v.Sub != "" && t.OwnerID == v.Sub
}

// CanDelete reports whether the viewer may delete the task
func CanDelete(t models.Task, v models.Viewer) bool {
	return v.Admin || IsOwner(t, v)
}

// SharedWith summarizes the non-owner participants: the first two names,
// then "(+N)" for the rest. It returns "" when the task is not shared.
func SharedWith(t models.Task) string {
	var names []string
	for _, p := range t.Participants {
		if p.UserID != t.OwnerID {
			names = append(names, p.UserName)
		}
	}
	if len(names) == 0 {
		return ""
	}
	visible := strings.Join(names[:min(2, len(names))], ", ")
	if len(names) > 2 {
		visible += fmt.Sprintf(" (+%d)", len(names)-2)
	}
	return visible
}
