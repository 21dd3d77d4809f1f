package views

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/foxzi/backoffice/internal/models"
)

//go:embed *.html
var templatesFS embed.FS

const (
	layoutFile    = "layout.html"
	partialPrefix = "partial_"
)

type Engine struct {
	base      *template.Template
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatTime": formatTime,
	"prettyJSON": prettyJSON,
	"pageURL":    pageURL,
	"add":        func(a, b int) int { return a + b },
	"sub":        func(a, b int) int { return a - b },
	"statuses":   func() []models.FeedbackStatus { return models.FeedbackStatuses },
}

// New parses the layout and partials once, then clones them for every page
func New() (*Engine, error) {
	base, err := template.New(layoutFile).Funcs(funcs).ParseFS(templatesFS, layoutFile, partialPrefix+"*.html")
	if err != nil {
		return nil, err
	}

	e := &Engine{
		base:      base,
		templates: make(map[string]*template.Template),
	}

	entries, err := fs.ReadDir(templatesFS, ".")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == layoutFile || strings.HasPrefix(name, partialPrefix) {
			continue
		}

		baseName := name[:len(name)-len(filepath.Ext(name))]

		tmpl, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.ParseFS(templatesFS, name); err != nil {
			return nil, err
		}
		e.templates[baseName] = tmpl
	}

	return e, nil
}

// Has reports whether a page template exists
func (e *Engine) Has(name string) bool {
	_, ok := e.templates[name]
	return ok
}

// Render renders a page inside the layout
func (e *Engine) Render(w io.Writer, name string, data any) error {
	tmpl, ok := e.templates[name]
	if !ok {
		return &NotFoundError{Name: name}
	}
	return tmpl.ExecuteTemplate(w, layoutFile, data)
}

// RenderPartial renders one named partial without the layout, for the
// fragments fetched by the page scripts
func (e *Engine) RenderPartial(w io.Writer, name string, data any) error {
	if e.base.Lookup(name) == nil {
		return &NotFoundError{Name: name}
	}
	return e.base.ExecuteTemplate(w, name, data)
}

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "template not found: " + e.Name
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// pageURL builds the listing link for q moved to page
func pageURL(q models.FeedbackQuery, page int) string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	v.Set("page", strconv.Itoa(page))
	return "/feedbacks?" + v.Encode()
}
