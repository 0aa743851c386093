package web

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/auth"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"taskId":"1","title":"Write report","status":"todo","priority":"high","category":"ops","commentCount":1},
			{"taskId":"2","title":"Ship release","status":"done","priority":"low"}
		]`)
	})
	mux.HandleFunc("GET /tasks/1/comments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"commentId":"c1","userName":"bo","comment":"ping @ana"}]`)
	})
	mux.HandleFunc("GET /mentions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"sk":"MENTION#2024-05-01T10:00:00#c1","taskId":"1","taskTitle":"Write report","status":"UNREAD"}]`)
	})
	mux.HandleFunc("GET /audit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, admin bool) *Server {
	t.Helper()
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-1","username":"ana"}`))
	sess, err := auth.New(nil, "h."+payload+".s")
	require.NoError(t, err)

	client := api.New(fakeAPI(t).URL, sess)
	inbox := mentions.NewInbox(client)
	r, err := render.New()
	require.NoError(t, err)

	viewer := sess.Viewer()
	viewer.Admin = admin
	return NewServer(Deps{
		Tasks:    tasks.NewState(client, tasks.WithMentions(inbox)),
		Inbox:    inbox,
		Comments: client,
		Audit:    client,
		Renderer: r,
		Viewer:   viewer,
		Theme:    "dark",
	})
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestTasksPage(t *testing.T) {
	s := newTestServer(t, false)

	w := get(s, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Write report")
	assert.Contains(t, body, "Ship release")
	assert.Contains(t, body, `<span class="badge count">1</span>`)

	w = get(s, "/?status=done")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Write report")
	assert.Contains(t, w.Body.String(), "Ship release")

	w = get(s, "/?priority=urgent")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentsPage(t *testing.T) {
	s := newTestServer(t, false)

	w := get(s, "/tasks/1/comments")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<span class="mention">@ana</span>`)

	w = get(s, "/tasks/missing/comments")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMentionsPage(t *testing.T) {
	s := newTestServer(t, false)

	w := get(s, "/mentions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mention-unread")
}

func TestAuditPage(t *testing.T) {
	w := get(newTestServer(t, false), "/audit")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the fake API rejects the token, which logs the session out
	s := newTestServer(t, true)
	w = get(s, "/audit")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(s, "/")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
