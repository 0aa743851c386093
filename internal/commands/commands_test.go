package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/auth"
	"github.com/tgienger/taskr/internal/comments"
	"github.com/tgienger/taskr/internal/config"
	"github.com/tgienger/taskr/internal/db"
	"github.com/tgienger/taskr/internal/tasks"
)

func fakeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return "eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

type call struct {
	method string
	path   string
	body   map[string]any
}

// fakeAPI serves canned collections and records every mutation
type fakeAPI struct {
	mu       sync.Mutex
	calls    []call
	tasks    string
	comments string
	mentions string
	audit    string
	users    string
	status   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := call{method: r.Method, path: r.URL.Path}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &c.body)
	}
	f.calls = append(f.calls, c)

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := "[]"
	switch {
	case r.URL.Path == "/tasks":
		body = f.tasks
	case strings.HasSuffix(r.URL.Path, "/comments"):
		body = f.comments
	case r.URL.Path == "/mentions":
		body = f.mentions
	case r.URL.Path == "/audit":
		body = f.audit
	case r.URL.Path == "/users":
		body = f.users
	}
	if body == "" {
		body = "[]"
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

// mutations returns the recorded non-GET calls
func (f *fakeAPI) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) requested(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.path == path {
			return true
		}
	}
	return false
}

const sampleTasks = `[
	{"taskId":"t1","title":"Write docs","status":"todo","priority":"high","category":"docs","ownerId":"u-1","createdBy":"ana","createdAt":"2024-03-01T10:00:00Z"},
	{"taskId":"t2","title":"Ship <release>","status":"done","priority":"low","ownerId":"u-2","createdBy":"bo","createdAt":"2024-03-02T10:00:00Z","participantIds":["u-1"]}
]`

type fixture struct {
	app *App
	api *fakeAPI
}

func newFixture(t *testing.T, admin bool) *fixture {
	t.Helper()

	fake := &fakeAPI{tasks: sampleTasks}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	store, err := db.New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.DataDir = dir
	cfg.Auth = config.AuthConfig{
		Domain:      "https://login.example.com",
		ClientID:    "client",
		RedirectURI: "https://app.example.com/callback",
		LogoutURI:   "https://app.example.com/",
	}

	claims := map[string]any{"sub": "u-1", "username": "ana"}
	if admin {
		claims["cognito:groups"] = []string{auth.AdminGroup}
	}
	_, err = auth.Login(store, auth.Tokens{IDToken: "id", AccessToken: fakeToken(t, claims)})
	require.NoError(t, err)

	return &fixture{
		app: &App{Config: &cfg, Store: store, Log: zerolog.Nop(), HTTPClient: srv.Client()},
		api: fake,
	}
}

// run executes args against a root command wired like main
func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flags := &Flags{Config: f.app.Config}
	var out bytes.Buffer
	root := &cli.Command{Name: "taskr", Writer: &out, ErrWriter: io.Discard}

	root = NewLoginCmd(flags, f.app).Register(root)
	root = NewTasksCmd(flags, f.app).Register(root)
	root = NewCommentsCmd(flags, f.app).Register(root)
	root = NewMentionsCmd(flags, f.app).Register(root)
	root = NewAuditCmd(flags, f.app).Register(root)
	root = NewExportCmd(flags, f.app).Register(root)
	root = NewThemeCmd(flags, f.app).Register(root)

	err := root.Run(context.Background(), append([]string{"taskr"}, args...))
	return out.String(), err
}

func noTerminal(t *testing.T) {
	t.Helper()
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })
}

func TestTasksListFilters(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.run(t, "tasks", "ls", "--status", "done")
	require.NoError(t, err)
	assert.Contains(t, out, "Ship <release>")
	assert.NotContains(t, out, "Write docs")

	out, err = f.run(t, "tasks", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "ana (You)")
	assert.True(t, f.api.requested("/mentions"), "loading tasks refreshes mentions")
}

func TestTasksListRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.run(t, "tasks", "ls", "--status", "blocked")
	require.Error(t, err)
	assert.False(t, f.api.requested("/tasks"))
}

func TestTasksListJSON(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.run(t, "tasks", "ls", "--json", "--priority", "high")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "t1", got["id"])
	assert.Equal(t, "TASK#t1", got["pk"])
}

func TestTasksAddRejectsMarkupBeforeNetwork(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.run(t, "tasks", "add", "<b>bold</b>")
	require.ErrorIs(t, err, tasks.ErrUnsafeTitle)

	_, err = f.run(t, "tasks", "add", "   ")
	require.ErrorIs(t, err, tasks.ErrEmptyTitle)

	assert.Empty(t, f.api.mutations())
}

func TestTasksAddAppliesDefaults(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.run(t, "tasks", "add", "--priority", "high", "Plan", "sprint")
	require.NoError(t, err)
	assert.Contains(t, out, `Created task "Plan sprint"`)

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, http.MethodPost, muts[0].method)
	assert.Equal(t, "/tasks", muts[0].path)
	assert.Equal(t, "Plan sprint", muts[0].body["title"])
	assert.Equal(t, "todo", muts[0].body["status"])
	assert.Equal(t, "high", muts[0].body["priority"])
	assert.Equal(t, "general", muts[0].body["category"])
}

func TestTasksSetSendsPartialUpdate(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.run(t, "tasks", "set", "--status", "in-progress", "t1")
	require.NoError(t, err)

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, http.MethodPut, muts[0].method)
	assert.Equal(t, "/tasks/t1", muts[0].path)
	assert.Equal(t, "TASK#t1", muts[0].body["pk"])
	assert.Equal(t, "in-progress", muts[0].body["status"])
	assert.NotContains(t, muts[0].body, "priority")
}

func TestTasksSetNeedsAChange(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.run(t, "tasks", "set", "t1")
	require.Error(t, err)
	assert.Empty(t, f.api.mutations())
}

func TestTasksRemoveRequiresOwner(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.run(t, "tasks", "rm", "--yes", "t2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the owner")
	assert.Empty(t, f.api.mutations())
}

func TestTasksRemoveAdminMayDeleteAnyTask(t *testing.T) {
	f := newFixture(t, true)

	out, err := f.run(t, "tasks", "rm", "--yes", "t2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, http.MethodDelete, muts[0].method)
	assert.Equal(t, "TASK#t2", muts[0].body["pk"])
}

func TestTasksRemoveWithoutTerminalNeedsYes(t *testing.T) {
	noTerminal(t)
	f := newFixture(t, false)

	_, err := f.run(t, "tasks", "rm", "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, f.api.mutations())
}

const sampleComments = `[
	{"commentId":"c1","taskId":"t1","userId":"u-1","userName":"ana","comment":"mine","createdAt":"2024-03-01T10:00:00Z"},
	{"commentId":"c2","taskId":"t1","userId":"u-2","userName":"bo","comment":"hey @ana","createdAt":"2024-03-02T10:00:00Z"}
]`

func TestCommentsListNewestFirst(t *testing.T) {
	f := newFixture(t, false)
	f.api.comments = sampleComments

	out, err := f.run(t, "comments", "ls", "t1")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "c2"), strings.Index(out, "c1"))
	assert.Contains(t, out, "ana *")
}

func TestCommentsAdd(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.run(t, "comments", "add", "t1")
	require.ErrorIs(t, err, comments.ErrEmptyComment)
	assert.Empty(t, f.api.mutations())

	_, err = f.run(t, "comments", "add", "t1", "ping", "@bo")
	require.NoError(t, err)

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, "/tasks/t1/comments", muts[0].path)
	assert.Equal(t, "ping @bo", muts[0].body["comment"])
}

func TestCommentsEditChecksAuthor(t *testing.T) {
	f := newFixture(t, false)
	f.api.comments = sampleComments

	_, err := f.run(t, "comments", "edit", "t1", "c2", "changed")
	require.Error(t, err)
	assert.Empty(t, f.api.mutations())

	_, err = f.run(t, "comments", "edit", "t1", "c1", "changed")
	require.NoError(t, err)

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, http.MethodPut, muts[0].method)
	assert.Equal(t, "/tasks/t1/comments/c1", muts[0].path)
	assert.Equal(t, "changed", muts[0].body["comment"])
}

func TestCommentsRemove(t *testing.T) {
	f := newFixture(t, false)
	f.api.comments = sampleComments

	_, err := f.run(t, "comments", "rm", "--yes", "t1", "missing")
	require.ErrorIs(t, err, comments.ErrUnknownComment)

	_, err = f.run(t, "comments", "rm", "--yes", "t1", "c1")
	require.NoError(t, err)

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, http.MethodDelete, muts[0].method)
	assert.Equal(t, "/tasks/t1/comments/c1", muts[0].path)
}

const sampleMentions = `[
	{"sk":"MENTION#2024-03-02T10:00:00Z#c2","taskId":"t1","taskTitle":"Write docs","comment":"hey @ana","mentionedBy":"bo","status":"UNREAD"},
	{"sk":"MENTION#2024-03-01T10:00:00Z#c9","taskId":"t2","comment":"old","status":"READ"}
]`

func TestMentionsListUnread(t *testing.T) {
	f := newFixture(t, false)
	f.api.mentions = sampleMentions

	out, err := f.run(t, "mentions", "ls", "--unread")
	require.NoError(t, err)
	assert.Contains(t, out, "Write docs")
	assert.NotContains(t, out, "Untitled Task")
}

func TestMentionsRead(t *testing.T) {
	f := newFixture(t, false)
	f.api.mentions = sampleMentions

	_, err := f.run(t, "mentions", "read", "MENTION#2024-03-02T10:00:00Z#c2")
	require.NoError(t, err)

	muts := f.api.mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, http.MethodPatch, muts[0].method)
	assert.Equal(t, "/mentions/MENTION#2024-03-02T10:00:00Z#c2", muts[0].path)

	// Already read: nothing is sent
	_, err = f.run(t, "mentions", "read", "MENTION#2024-03-01T10:00:00Z#c9")
	require.NoError(t, err)
	assert.Len(t, f.api.mutations(), 1)
}

func TestAuditIsAdminOnly(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.run(t, "audit")
	require.ErrorIs(t, err, audit.ErrAdminOnly)
	assert.False(t, f.api.requested("/audit"))
}

func TestAuditListsNewestFirst(t *testing.T) {
	f := newFixture(t, true)
	f.api.audit = `[
		{"action":"create","taskTitle":"Old","createdBy":"ana","createdAt":"2024-03-01T10:00:00Z"},
		{"action":"update","oldValue":"todo","newValue":"done","taskTitle":"New","updatedBy":"bo","updatedAt":"2024-03-05T10:00:00Z"}
	]`

	out, err := f.run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "todo → done")
	assert.Less(t, strings.Index(out, "New"), strings.Index(out, "Old"))
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t, false)
	f.api.status = http.StatusUnauthorized

	_, err := f.run(t, "tasks", "ls")
	require.ErrorIs(t, err, api.ErrUnauthorized)

	token, err := f.app.Store.GetSetting(db.SettingAccessToken)
	require.NoError(t, err)
	assert.Empty(t, token)

	f.api.status = 0
	_, err = f.run(t, "tasks", "ls")
	require.ErrorIs(t, err, auth.ErrNotLoggedIn)
	assert.Contains(t, err.Error(), "taskr login")
}

func TestLoginWithCallbackAndLogout(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "https://login.example.com/logout?")

	_, err = f.run(t, "whoami")
	require.ErrorIs(t, err, auth.ErrNotLoggedIn)

	token := fakeToken(t, map[string]any{"sub": "u-9", "username": "cy", "cognito:groups": []string{"admin"}})
	out, err = f.run(t, "login", "--callback", "https://app.example.com/callback#id_token=x&access_token="+token+"&state=s")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as cy (ADMIN)")

	out, err = f.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "u-9")
}

func TestLoginRejectsCallbackWithoutTokens(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.run(t, "login", "--callback", "https://app.example.com/callback?error=denied")
	require.ErrorIs(t, err, auth.ErrLoginFailed)
}

func TestLoginReadsCallbackFromStdin(t *testing.T) {
	f := newFixture(t, false)
	token := fakeToken(t, map[string]any{"sub": "u-3", "email": "dee@example.com"})

	flags := &Flags{}
	login := NewLoginCmd(flags, f.app)
	login.in = strings.NewReader("#id_token=x&access_token=" + token + "\n")

	var out bytes.Buffer
	root := login.Register(&cli.Command{Name: "taskr", Writer: &out})
	require.NoError(t, root.Run(context.Background(), []string{"taskr", "login"}))

	assert.Contains(t, out.String(), "https://login.example.com/login?")
	assert.Contains(t, out.String(), "Logged in as dee@example.com (USER)")
}

func TestExportTasksEscapesTitles(t *testing.T) {
	f := newFixture(t, false)
	path := filepath.Join(t.TempDir(), "tasks.html")

	_, err := f.run(t, "export", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ship &lt;release&gt;")
	assert.NotContains(t, string(data), "<release>")
}

func TestExportCommentsNeedsTask(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.run(t, "export", "--page", "comments")
	require.Error(t, err)

	_, err = f.run(t, "export", "--page", "bogus")
	require.Error(t, err)
}

func TestThemeSetAndShow(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.run(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, err = f.run(t, "theme", "solarized")
	require.Error(t, err)

	_, err = f.run(t, "theme", "light")
	require.NoError(t, err)

	out, err = f.run(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)
}
