// Package render turns tasks, comments, mentions and audit entries into HTML
// pages. Templates are contextually escaped, so user text is never trusted.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageTasks    = "tasks.html"
	PageComments = "comments.html"
	PageMentions = "mentions.html"
	PageAudit    = "audit.html"
)

// Renderer executes the embedded page templates
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page together with the shared layout
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
	}

	tmplFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	layout, err := fs.ReadFile(tmplFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, page := range []string{PageTasks, PageComments, PageMentions, PageAudit} {
		body, err := fs.ReadFile(tmplFS, page)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", page, err)
		}
		tmpl, err := template.New(page).Funcs(funcs).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := tmpl.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render writes the named page
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

func (r *Renderer) Tasks(w io.Writer, p TasksPage) error {
	return r.Render(w, PageTasks, p)
}

func (r *Renderer) Comments(w io.Writer, p CommentsPage) error {
	return r.Render(w, PageComments, p)
}

func (r *Renderer) Mentions(w io.Writer, p MentionsPage) error {
	return r.Render(w, PageMentions, p)
}

func (r *Renderer) Audit(w io.Writer, p AuditPage) error {
	return r.Render(w, PageAudit, p)
}
