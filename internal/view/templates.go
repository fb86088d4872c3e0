package view

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/web"
)

// Engine renders HTML templates. Each page gets its own clone of the
// shared layout and partials, keyed by its path under templates/.
type Engine struct {
	pages map[string]*template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Principal   authz.Principal
	Data        any
}

// NavLink is one entry in the role-scoped navigation.
type NavLink struct {
	Label string
	Path  string
}

// Nav returns the navigation entries visible to the current principal.
func (d TemplateData) Nav() []NavLink {
	switch d.Principal.Role {
	case authz.RoleAdmin:
		return []NavLink{
			{"Dashboard", "/"},
			{"Students", "/students"},
			{"Teachers", "/teachers"},
			{"Classes", "/classes"},
			{"Terms", "/grades/terms"},
			{"Accounts", "/users"},
		}
	case authz.RoleTeacher:
		return []NavLink{
			{"Dashboard", "/"},
			{"Students", "/students"},
			{"My Classes", "/classes"},
		}
	case authz.RoleStudent:
		return []NavLink{
			{"Dashboard", "/"},
			{"My Attendance", "/attendance/me"},
			{"My Grades", "/grades/me"},
		}
	}
	return nil
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"add": func(a, b int) int { return a + b },
	}
	root, err := template.New("root").Funcs(funcMap).
		ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(web.Templates, "templates/pages", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		clone, err := root.Clone()
		if err != nil {
			return err
		}
		if _, err := clone.ParseFS(web.Templates, path); err != nil {
			return err
		}
		pages[strings.TrimPrefix(path, "templates/")] = clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Engine{pages: pages}, nil
}

// Render executes the named page inside the base layout.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	page, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return page.ExecuteTemplate(w, "base", data)
}
