package ui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/comments"
	"github.com/tgienger/taskr/internal/config"
	"github.com/tgienger/taskr/internal/db"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/tasks"
	"github.com/tgienger/taskr/internal/ui/views"
)

type fakeBackend struct {
	mu        sync.Mutex
	tasks     []models.Task
	comments  map[string][]models.Comment
	mentions  []models.Mention
	audit     []models.AuditEntry
	users     []models.User
	listErr   error
	createErr error

	created      []api.NewTask
	patches      []api.TaskPatch
	deleted      []string
	added        []string
	deletedCmts  []string
	read         []string
	auditFetched int
}

func (f *fakeBackend) ListTasks(context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Task(nil), f.tasks...), nil
}

func (f *fakeBackend) CreateTask(_ context.Context, task api.NewTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, task)
	return nil
}

func (f *fakeBackend) UpdateTask(_ context.Context, id string, patch api.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	for i := range f.tasks {
		if f.tasks[i].TaskID == id {
			if patch.Status != nil {
				f.tasks[i].Status = *patch.Status
			}
			if patch.Priority != nil {
				f.tasks[i].Priority = *patch.Priority
			}
		}
	}
	return nil
}

func (f *fakeBackend) DeleteTask(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) ListComments(_ context.Context, taskID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Comment(nil), f.comments[taskID]...), nil
}

func (f *fakeBackend) AddComment(_ context.Context, taskID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, text)
	f.comments[taskID] = append(f.comments[taskID], models.Comment{
		ID: fmt.Sprintf("c%d", len(f.added)+10), TaskID: taskID, UserID: "u1", UserName: "alice", Text: text,
	})
	return nil
}

func (f *fakeBackend) EditComment(_ context.Context, taskID, commentID, text string) error {
	return nil
}

func (f *fakeBackend) DeleteComment(_ context.Context, taskID, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedCmts = append(f.deletedCmts, commentID)
	return nil
}

func (f *fakeBackend) ListMentions(context.Context) ([]models.Mention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Mention(nil), f.mentions...), nil
}

func (f *fakeBackend) MarkMentionRead(_ context.Context, sk string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, sk)
	for i := range f.mentions {
		if f.mentions[i].SK == sk {
			f.mentions[i].Status = models.MentionRead
		}
	}
	return nil
}

func (f *fakeBackend) ListAudit(context.Context) ([]models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditFetched++
	return f.audit, nil
}

func (f *fakeBackend) ListUsers(context.Context) ([]models.User, error) {
	return f.users, nil
}

type memStore map[string]string

func (m memStore) GetSetting(key string) (string, error) { return m[key], nil }
func (m memStore) SetSetting(key, value string) error    { m[key] = value; return nil }

func newBackend() *fakeBackend {
	return &fakeBackend{
		tasks: []models.Task{
			{TaskID: "t1", Title: "Ship release", Status: models.StatusTodo, Priority: models.PriorityHigh, OwnerID: "u1", CreatedBy: "alice"},
			{TaskID: "t2", Title: "Write notes", Status: models.StatusDone, Priority: models.PriorityLow, OwnerID: "u2", CreatedBy: "bob"},
		},
		comments: map[string][]models.Comment{
			"t1": {{ID: "c1", TaskID: "t1", UserID: "u1", UserName: "alice", Text: "first"}},
		},
		mentions: []models.Mention{
			{SK: "MENTION#2024-05-01T10:00:00Z#c9", TaskID: "t2", MentionedBy: "bob", Comment: "@alice look", Status: models.MentionUnread},
		},
		users: []models.User{{Username: "alice"}, {Username: "bob"}},
	}
}

type harness struct {
	app     *App
	backend *fakeBackend
	state   *tasks.State
	threads *comments.Threads
	inbox   *mentions.Inbox
	store   memStore
}

func newHarness(t *testing.T, b *fakeBackend, viewer models.Viewer, store memStore) *harness {
	t.Helper()
	inbox := mentions.NewInbox(b)
	state := tasks.NewState(b, tasks.WithMentions(inbox))
	threads := comments.NewThreads(b, state)

	app := NewApp(Options{
		Deps: views.Deps{
			Tasks:   state,
			Threads: threads,
			Inbox:   inbox,
			Audit:   b,
			Users:   b,
			Viewer:  viewer,
			Timeout: time.Second,
			Log:     zerolog.Nop(),
		},
		Store: store,
		Theme: config.ThemeDark,
		Now:   func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local) },
	})

	h := &harness{app: app, backend: b, state: state, threads: threads, inbox: inbox, store: store}
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 50})
	h.run(t, app.Init())
	return h
}

// relevant filters out cursor blink and other widget-internal messages
func relevant(msg tea.Msg) bool {
	switch msg.(type) {
	case views.TasksLoadedMsg, views.CommentsLoadedMsg, views.CommentsSettledMsg,
		views.UsersLoadedMsg, views.MentionsLoadedMsg, views.AuditLoadedMsg,
		views.OpenTaskMsg, views.FocusTaskMsg, views.ErrMsg, views.StatusMsg,
		SessionExpiredMsg:
		return true
	}
	return false
}

// run executes cmd and feeds every resulting message back into the app until
// nothing is left. Commands that block longer than a cursor blink are dropped.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		done := make(chan tea.Msg, 1)
		go func() { done <- c() }()
		var msg tea.Msg
		select {
		case msg = <-done:
		case <-time.After(400 * time.Millisecond):
			continue
		}

		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			if !relevant(msg) {
				continue
			}
			_, next := h.app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (h *harness) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	_, cmd := h.app.Update(msg)
	h.run(t, cmd)
}

func (h *harness) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		h.send(t, keyMsg(k))
	}
}

func (h *harness) typeText(t *testing.T, text string) {
	t.Helper()
	h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

var alice = models.Viewer{Sub: "u1", Name: "alice"}

func TestInitLoadsTasksAndBadge(t *testing.T) {
	h := newHarness(t, newBackend(), alice, memStore{})

	assert.Equal(t, ViewTasks, h.app.CurrentView())
	assert.True(t, h.state.Loaded())
	assert.Equal(t, 1, h.inbox.Unread())

	out := h.app.View()
	assert.Contains(t, out, "Good Morning, alice")
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "Ship release")
	assert.Contains(t, out, "alice (You)")
	assert.NotContains(t, out, "3 Audit")
}

func TestFilterKeysCycleAndClear(t *testing.T) {
	h := newHarness(t, newBackend(), alice, memStore{})

	h.press(t, "S")
	assert.Equal(t, models.StatusTodo, h.state.Filter().Status)
	require.Len(t, h.state.Visible(), 1)
	assert.Equal(t, "t1", h.state.Visible()[0].ID)
	out := h.app.View()
	assert.Contains(t, out, "Showing 1 of 2 tasks")
	assert.Contains(t, out, "Status: todo ▼")
	assert.Contains(t, out, "Priority: All ▼")

	h.press(t, "x")
	assert.True(t, h.state.Filter().IsZero())
	assert.Len(t, h.state.Visible(), 2)
}

func TestCycleStatusPatchesSelectedTask(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "s")

	require.Len(t, b.patches, 1)
	require.NotNil(t, b.patches[0].Status)
	assert.Equal(t, models.StatusInProgress, *b.patches[0].Status)
	assert.Nil(t, b.patches[0].Priority)

	task, ok := h.state.Find("t1")
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Contains(t, h.app.View(), "Status set to in-progress")
}

func TestCreateRejectsUnsafeTitleBeforeNetwork(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "n")
	h.typeText(t, "<b>bold</b>")
	h.press(t, "ctrl+s")

	assert.Empty(t, b.created)
	assert.Contains(t, h.app.View(), "cannot contain HTML")
}

func TestCreateTaskUsesDefaults(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "n")
	h.typeText(t, "Write docs")
	h.press(t, "ctrl+s")

	require.Len(t, b.created, 1)
	assert.Equal(t, "Write docs", b.created[0].Title)
	assert.Equal(t, models.StatusTodo, b.created[0].Status)
	assert.Equal(t, models.PriorityMedium, b.created[0].Priority)
	assert.Contains(t, h.app.View(), "Task created")
}

func TestFailedCreateKeepsDraft(t *testing.T) {
	b := newBackend()
	b.createErr = fmt.Errorf("bad gateway")
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "n")
	h.typeText(t, "Write docs")
	h.press(t, "ctrl+s")

	assert.Empty(t, b.created)
	out := h.app.View()
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "task not created")

	h.press(t, "esc", "n")
	assert.NotContains(t, h.app.View(), "Write docs")

	b.mu.Lock()
	b.createErr = nil
	b.mu.Unlock()
	h.typeText(t, "Write docs")
	h.press(t, "ctrl+s")
	require.Len(t, b.created, 1)

	h.press(t, "n")
	assert.NotContains(t, h.app.View(), "Write docs")
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "d")
	assert.Contains(t, h.app.View(), "Delete Task?")
	h.press(t, "n")
	assert.Empty(t, b.deleted)

	h.press(t, "d", "y")
	assert.Equal(t, []string{"t1"}, b.deleted)
}

func TestDeleteNotOfferedToNonOwner(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "j", "d")
	assert.NotContains(t, h.app.View(), "Delete Task?")
	assert.Contains(t, h.app.View(), "Only the owner or an admin")
}

func TestCommentPanelAddWithCompletion(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "enter")
	assert.Equal(t, comments.Open, h.threads.Panel("t1").State)
	assert.Contains(t, h.app.View(), "first")

	h.press(t, "c")
	h.typeText(t, "thanks @al")
	h.press(t, "tab", "ctrl+s")

	assert.Equal(t, []string{"thanks @alice"}, b.added)
	task, _ := h.state.Find("t1")
	assert.Equal(t, 1, task.CommentCount)
	assert.Len(t, h.threads.Panel("t1").Comments, 2)

	h.press(t, "enter")
	assert.False(t, h.threads.IsOpen("t1"))
}

func TestEmptyCommentIsNotSent(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "c")
	h.typeText(t, "   ")
	h.press(t, "ctrl+s")

	assert.Empty(t, b.added)
	assert.Contains(t, h.app.View(), "Comment cannot be empty")
}

func TestDeleteCommentAfterConfirm(t *testing.T) {
	b := newBackend()
	b.tasks[0].CommentCount = 1
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "enter", "D")
	h.press(t, "y")

	assert.Equal(t, []string{"c1"}, b.deletedCmts)
	task, _ := h.state.Find("t1")
	assert.Equal(t, 0, task.CommentCount)
}

func TestOpenMentionMarksReadAndFocusesTask(t *testing.T) {
	b := newBackend()
	store := memStore{}
	h := newHarness(t, b, alice, store)

	h.press(t, "2")
	require.Equal(t, ViewMentions, h.app.CurrentView())
	assert.Equal(t, "mentions", store[db.SettingLastView])
	assert.Contains(t, h.app.View(), "bob mentioned you")

	h.press(t, "enter")

	assert.Equal(t, []string{"MENTION#2024-05-01T10:00:00Z#c9"}, b.read)
	assert.Equal(t, ViewTasks, h.app.CurrentView())
	assert.Equal(t, 0, h.inbox.Unread())
	assert.True(t, h.threads.IsOpen("t2"))
}

func TestAuditHiddenFromNonAdmin(t *testing.T) {
	b := newBackend()
	h := newHarness(t, b, alice, memStore{})

	h.press(t, "3")
	assert.Equal(t, ViewTasks, h.app.CurrentView())
	assert.Zero(t, b.auditFetched)
}

func TestAuditViewForAdmin(t *testing.T) {
	b := newBackend()
	b.audit = []models.AuditEntry{{Action: "update", OldValue: "todo", NewValue: "done", TaskTitle: "Ship release", UpdatedBy: "bob"}}
	admin := models.Viewer{Sub: "u9", Name: "root", Admin: true}
	h := newHarness(t, b, admin, memStore{})

	h.press(t, "3")
	assert.Equal(t, ViewAudit, h.app.CurrentView())
	assert.Equal(t, 1, b.auditFetched)

	out := h.app.View()
	assert.Contains(t, out, "todo → done")
	assert.Contains(t, out, "Ship release")
	assert.Contains(t, out, "ADMIN")
}

func TestUnauthorizedShowsExpiredScreen(t *testing.T) {
	b := newBackend()
	b.listErr = fmt.Errorf("load tasks: %w", api.ErrUnauthorized)
	h := newHarness(t, b, alice, memStore{})

	assert.True(t, h.app.Expired())
	assert.Contains(t, h.app.View(), "Session Expired")

	_, cmd := h.app.Update(keyMsg("x"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestThemeTogglePersists(t *testing.T) {
	store := memStore{}
	h := newHarness(t, newBackend(), alice, store)

	h.press(t, "t")
	assert.Equal(t, config.ThemeLight, store[db.SettingTheme])
	h.press(t, "t")
	assert.Equal(t, config.ThemeDark, store[db.SettingTheme])
}

func TestLastViewRestored(t *testing.T) {
	h := newHarness(t, newBackend(), alice, memStore{db.SettingLastView: "mentions"})
	assert.Equal(t, ViewMentions, h.app.CurrentView())
	assert.True(t, h.state.Loaded())
}

func TestAuditLastViewFallsBackForNonAdmin(t *testing.T) {
	h := newHarness(t, newBackend(), alice, memStore{db.SettingLastView: "audit"})
	assert.Equal(t, ViewTasks, h.app.CurrentView())
}

func TestParseView(t *testing.T) {
	for _, v := range []View{ViewTasks, ViewMentions, ViewAudit} {
		assert.Equal(t, v, ParseView(v.String()))
	}
	assert.Equal(t, ViewTasks, ParseView("projects"))
}
