package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/backoffice/internal/session"
)

// CookieName is the browser session cookie
const CookieName = "session"

// Refresher renews the admin API tokens of the session in ctx when needed
type Refresher interface {
	EnsureFresh(ctx context.Context) error
}

type ctxKey string

const ctxKeySession ctxKey = "session"

// Logger middleware logs HTTP requests
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"ip", r.RemoteAddr,
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

// Recovery middleware recovers from panics
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Auth middleware resolves the session cookie. Requests without a live,
// signed-in session are sent to the login page; script requests get 401.
// The session id is attached to the request context for the API client.
func Auth(store session.Store, refresher Refresher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				unauthenticated(w, r)
				return
			}

			sess, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					logger.Error("session lookup failed", "error", err)
				}
				unauthenticated(w, r)
				return
			}
			if sess.Tokens.AccessToken == "" {
				unauthenticated(w, r)
				return
			}

			ctx := WithSession(r.Context(), sess)

			if refresher != nil {
				if err := refresher.EnsureFresh(ctx); err != nil {
					logger.Warn("session token refresh failed", "session", sess.ID, "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	if IsScriptRequest(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// IsScriptRequest reports whether r came from the page scripts rather than
// a navigation
func IsScriptRequest(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "fetch"
}

// WithSession attaches sess and its id to ctx
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	ctx = session.WithID(ctx, sess.ID)
	return context.WithValue(ctx, ctxKeySession, sess)
}

// SessionFrom returns the session resolved by Auth
func SessionFrom(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(ctxKeySession).(*session.Session); ok {
		return s
	}
	return nil
}
