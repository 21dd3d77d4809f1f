package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// HTTPMiddleware records console request metrics. Paths are labelled with
// the chi route pattern, so /feedbacks/17 counts as /feedbacks/{id}.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := Global()
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		path := routeLabel(r)

		m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(code)).Inc()
		m.RequestDurationSeconds.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		if code >= 400 {
			m.ErrorsTotal.WithLabelValues(errorClass(code)).Inc()
		}
	})
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizeSegments(r.URL.Path)
}

// normalizeSegments replaces numeric and UUID path segments with {id}. Used
// for outbound API paths, which never pass through the router.
func normalizeSegments(path string) string {
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isNumeric(part) || isUUID(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// isUUID accepts only the dashed 36 character form
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// errorClass groups console error responses
func errorClass(code int) string {
	switch {
	case code >= 500:
		return "server_error"
	case code == http.StatusUnauthorized:
		return "unauthenticated"
	case code == http.StatusForbidden:
		return "forbidden"
	case code == http.StatusNotFound:
		return "not_found"
	case code == http.StatusUnprocessableEntity:
		return "validation"
	default:
		return "client_error"
	}
}
