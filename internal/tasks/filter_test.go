package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskr/internal/models"
)

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "1", Status: models.StatusTodo, Priority: models.PriorityHigh, Category: "ops"},
		{ID: "2", Status: models.StatusDone, Priority: models.PriorityLow},
		{ID: "3", Status: models.StatusTodo, Priority: models.PriorityLow, Category: "ops"},
		{ID: "4", Status: models.StatusInProgress, Priority: models.PriorityHigh, Category: "dev"},
	}
}

func TestApplyMatchesEveryPredicate(t *testing.T) {
	working := sampleTasks()

	var filters []Filter
	for _, s := range append([]models.Status{""}, models.Statuses...) {
		for _, p := range append([]models.Priority{""}, models.Priorities...) {
			for _, c := range []string{"", "ops", "dev", models.DefaultCategory, "missing"} {
				filters = append(filters, Filter{Status: s, Priority: p, Category: c})
			}
		}
	}

	for _, f := range filters {
		got := Apply(working, f)
		for _, task := range got {
			assert.Contains(t, working, task)
			if f.Status != "" {
				assert.Equal(t, f.Status, task.Status)
			}
			if f.Priority != "" {
				assert.Equal(t, f.Priority, task.Priority)
			}
			if f.Category != "" {
				assert.Equal(t, f.Category, task.CategoryOrDefault())
			}
		}
		// every excluded task fails at least one predicate
		for _, task := range working {
			if !f.Matches(task) {
				assert.NotContains(t, got, task)
			}
		}
	}

	assert.Equal(t, working, Apply(working, Filter{}))
}

func TestApplyCategoryMatchesDefault(t *testing.T) {
	got := Apply(sampleTasks(), Filter{Category: models.DefaultCategory})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("Done", "", " ops ")
	require.NoError(t, err)
	assert.Equal(t, Filter{Status: models.StatusDone, Category: "ops"}, f)
	assert.Equal(t, "status=done category=ops", f.String())

	_, err = ParseFilter("", "critical", "")
	assert.Error(t, err)

	f, err = ParseFilter("", "", "")
	require.NoError(t, err)
	assert.True(t, f.IsZero())
	assert.Equal(t, "all", f.String())
}

func TestFilterCycles(t *testing.T) {
	var seen []models.Status
	cur := models.Status("")
	for range 4 {
		cur = NextStatus(cur)
		seen = append(seen, cur)
	}
	assert.Equal(t, []models.Status{models.StatusTodo, models.StatusInProgress, models.StatusDone, ""}, seen)

	assert.Equal(t, models.PriorityLow, NextPriority(""))
	assert.Equal(t, models.Priority(""), NextPriority(models.PriorityHigh))

	cats := []string{"dev", "ops"}
	assert.Equal(t, "dev", NextCategory("", cats))
	assert.Equal(t, "ops", NextCategory("dev", cats))
	assert.Equal(t, "", NextCategory("ops", cats))
	assert.Equal(t, "", NextCategory("dev", nil))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"dev", models.DefaultCategory, "ops"}, Categories(sampleTasks()))
}

func TestOwnershipHelpers(t *testing.T) {
	task := models.Task{OwnerID: "u-1", ParticipantIDs: []string{"u-1", "u-2"}}
	owner := models.Viewer{Sub: "u-1"}
	participant := models.Viewer{Sub: "u-2"}
	stranger := models.Viewer{Sub: "u-3"}
	admin := models.Viewer{Sub: "u-9", Admin: true}

	assert.True(t, IsMine(task, owner))
	assert.True(t, IsMine(task, participant))
	assert.False(t, IsMine(task, stranger))

	assert.True(t, CanDelete(task, owner))
	assert.False(t, CanDelete(task, participant))
	assert.True(t, CanDelete(task, admin))
	assert.False(t, CanDelete(models.Task{}, models.Viewer{}))
}

func TestSharedWith(t *testing.T) {
	tests := []struct {
		name         string
		participants []models.Participant
		want         string
	}{
		{name: "not shared", participants: []models.Participant{{UserID: "o", UserName: "owner"}}, want: ""},
		{name: "one", participants: []models.Participant{{UserID: "o"}, {UserID: "a", UserName: "ana"}}, want: "ana"},
		{
			name: "overflow",
			participants: []models.Participant{
				{UserID: "a", UserName: "ana"},
				{UserID: "o", UserName: "owner"},
				{UserID: "b", UserName: "bo"},
				{UserID: "c", UserName: "cy"},
				{UserID: "d", UserName: "di"},
			},
			want: "ana, bo (+2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{OwnerID: "o", Participants: tt.participants}
			assert.Equal(t, tt.want, SharedWith(task))
		})
	}
}
