package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgienger/taskr/internal/audit"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/tasks"
)

func (s *Server) handleTasks(c *gin.Context) {
	filter, err := tasks.ParseFilter(c.Query("status"), c.Query("priority"), c.Query("category"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Tasks.Load(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}

	page := render.NewTasksPage(s.header("tasks"), s.deps.Tasks.Tasks(), filter, s.deps.Viewer)
	s.render(c, render.PageTasks, page)
}

func (s *Server) handleComments(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if !s.deps.Tasks.Loaded() {
		if err := s.deps.Tasks.Load(ctx); err != nil {
			s.fail(c, err)
			return
		}
	}
	task, ok := s.deps.Tasks.Find(id)
	if !ok {
		s.fail(c, fmt.Errorf("%w: %s", tasks.ErrNotFound, id))
		return
	}

	cs, err := s.deps.Comments.ListComments(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}

	page := render.NewCommentsPage(s.header("tasks"), task, cs, s.deps.Viewer)
	s.render(c, render.PageComments, page)
}

func (s *Server) handleMentions(c *gin.Context) {
	if err := s.deps.Inbox.Refresh(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	page := render.NewMentionsPage(s.header("mentions"), s.deps.Inbox.Mentions())
	s.render(c, render.PageMentions, page)
}

func (s *Server) handleAudit(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := audit.Fetch(ctx, s.deps.Audit, s.deps.Viewer)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.refreshMentions(ctx)
	page := render.NewAuditPage(s.header("audit"), entries)
	s.render(c, render.PageAudit, page)
}
