// Package web serves a read-only HTML preview of the task, mention and audit
// views.
package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/auth"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/tasks"
)

// CommentLister fetches a task's comments
type CommentLister interface {
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
}

// Deps are the collaborators the server reads from
type Deps struct {
	Tasks    *tasks.State
	Inbox    *mentions.Inbox
	Comments CommentLister
	Audit    audit.Backend
	Renderer *render.Renderer
	Viewer   models.Viewer
	Theme    string
	Log      zerolog.Logger
	Now      func() time.Time
}

// Server is the preview web server
type Server struct {
	deps   Deps
	router *gin.Engine
}

// NewServer creates the server and registers its routes
func NewServer(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Log))

	s := &Server{deps: d, router: router}

	router.GET("/", s.handleTasks)
	router.GET("/tasks/:id/comments", s.handleComments)
	router.GET("/mentions", s.handleMentions)
	router.GET("/audit", s.handleAudit)

	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info().Str("addr", addr).Msg("preview server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("preview request")
	}
}

func (s *Server) header(active string) render.Header {
	unread := 0
	if s.deps.Inbox != nil {
		unread = s.deps.Inbox.Unread()
	}
	return render.NewHeader(s.deps.Viewer, unread, s.deps.Theme, active, s.deps.Now())
}

func (s *Server) render(c *gin.Context, page string, data any) {
	var buf bytes.Buffer
	if err := s.deps.Renderer.Render(&buf, page, data); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, auth.ErrNotLoggedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, audit.ErrAdminOnly):
		status = http.StatusForbidden
	case errors.Is(err, tasks.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &apiErr):
		status = apiErr.Status
	}
	s.deps.Log.Warn().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("preview request failed")
	c.String(status, err.Error())
}

func (s *Server) refreshMentions(ctx context.Context) {
	if s.deps.Inbox == nil {
		return
	}
	if err := s.deps.Inbox.Refresh(ctx); err != nil {
		s.deps.Log.Warn().Err(err).Msg("refresh mentions")
	}
}
