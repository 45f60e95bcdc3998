package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/syncer"
	"github.com/erazemk/zaloga/internal/websocket"
	webembed "github.com/erazemk/zaloga/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusActive:
				return "在庫あり"
			case model.ItemStatusOut:
				return "在庫切れ"
			case model.ItemStatusArchived:
				return "アーカイブ"
			default:
				return status
			}
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006/01/02 15:04")
		},
	}
}

// pages are parsed together with layout.html.
var pages = []string{
	"list.html",
	"add.html",
	"consume.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title     string
	Nav       string
	Mock      bool
	Flash     string
	FlashKind string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Sync      *syncer.Controller
	Templates *Templates
	Hub       *websocket.Hub
}

// page builds the base data for a request, picking up a flash message left
// by the previous redirect.
func (s *Server) page(r *http.Request, title, nav string) PageData {
	q := r.URL.Query()
	return PageData{
		Title:     title,
		Nav:       nav,
		Mock:      s.Sync.Mode() == syncer.ModeMock,
		Flash:     q.Get("msg"),
		FlashKind: q.Get("kind"),
	}
}
