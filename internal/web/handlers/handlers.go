package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxzi/backoffice/internal/auth"
	"github.com/foxzi/backoffice/internal/console"
	"github.com/foxzi/backoffice/internal/session"
	"github.com/foxzi/backoffice/internal/web/middleware"
	"github.com/foxzi/backoffice/internal/web/views"
)

// Authenticator is the subset of auth.Service used by the handlers
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Response, error)
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.Response, error)
	Logout(ctx context.Context) error
}

// Options configure the session cookie
type Options struct {
	SessionTTL    time.Duration
	SecureCookies bool
}

type Handlers struct {
	views    *views.Engine
	logger   *slog.Logger
	sessions session.Store
	auth     Authenticator
	pages    *console.Registry
	opts     Options
}

func New(engine *views.Engine, sessions session.Store, authn Authenticator, pages *console.Registry, opts Options, logger *slog.Logger) *Handlers {
	if opts.SessionTTL == 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	return &Handlers{
		views:    engine,
		logger:   logger.With("component", "web"),
		sessions: sessions,
		auth:     authn,
		pages:    pages,
		opts:     opts,
	}
}

// Health check
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Home redirects to the feedback listing
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/feedbacks", http.StatusSeeOther)
}

// sessionID returns the id attached by the auth middleware
func sessionID(r *http.Request) string {
	id, _ := session.IDFrom(r.Context())
	return id
}

func (h *Handlers) pageData(r *http.Request, title, active string) map[string]any {
	data := map[string]any{
		"Title":  title,
		"Active": active,
		"User":   "",
	}
	if s := middleware.SessionFrom(r.Context()); s != nil {
		data["User"] = s.AdminEmail
	}
	return data
}

// render executes a page into a buffer so template errors never leave a
// half-written response
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.views.Render(&buf, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handlers) renderPartial(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.views.RenderPartial(&buf, name, data); err != nil {
		h.logger.Error("failed to render partial", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

// error renders the error page
func (h *Handlers) error(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.Warn("request error", "status", status, "path", r.URL.Path, "message", message)
	data := h.pageData(r, http.StatusText(status), "")
	data["Message"] = message
	h.render(w, status, "error", data)
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
