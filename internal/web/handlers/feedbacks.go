package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/backoffice/internal/console"
	"github.com/foxzi/backoffice/internal/debounce"
	"github.com/foxzi/backoffice/internal/metrics"
	"github.com/foxzi/backoffice/internal/models"
)

var feedbackLimits = []int{10, 20, 50, 100}

// FeedbackList renders the feedback listing. Query parameters replace the
// filters; without them the session's current filters are kept.
func (h *Handlers) FeedbackList(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Feedback(sessionID(r))
	page.Close()

	q := r.URL.Query()
	var err error
	switch {
	case hasAny(q, "status", "page", "limit", "search"):
		err = page.Apply(r.Context(), feedbackQuery(q, page.View().Filters))
		if err == nil && q.Get("refresh") != "" {
			err = page.Refresh(r.Context())
		}
	case q.Get("refresh") != "":
		err = page.Refresh(r.Context())
	default:
		err = page.EnsureLoaded(r.Context())
	}
	if err != nil && !errors.Is(err, console.ErrStale) {
		h.logger.Warn("feedback load failed", "error", err)
	}

	data := h.pageData(r, "Feedbacks", "feedbacks")
	data["View"] = page.View()
	data["Limits"] = feedbackLimits
	h.render(w, http.StatusOK, "feedbacks", data)
}

// FeedbackSearch is the debounced live search. Requests overtaken by newer
// input, or whose response went stale, answer 204.
func (h *Handlers) FeedbackSearch(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Feedback(sessionID(r))

	err := page.Search(r.Context(), r.URL.Query().Get("q"))
	if superseded(err) {
		metrics.IncSearchSuperseded("feedbacks")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Warn("feedback search failed", "error", err)
	}

	h.renderPartial(w, "feedback_table", map[string]any{"View": page.View()})
}

// FeedbackView shows one feedback from the loaded page
func (h *Handlers) FeedbackView(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.error(w, r, http.StatusBadRequest, "Invalid feedback ID")
		return
	}

	page := h.pages.Feedback(sessionID(r))
	if err := page.EnsureLoaded(r.Context()); err != nil && !errors.Is(err, console.ErrStale) {
		h.logger.Warn("feedback load failed", "error", err)
	}

	f, err := page.Open(id)
	if err != nil {
		h.error(w, r, http.StatusNotFound, "Feedback not found on the current page")
		return
	}

	data := h.pageData(r, f.Subject, "feedbacks")
	data["Feedback"] = f
	h.render(w, http.StatusOK, "feedback_detail", data)
}

func feedbackQuery(q map[string][]string, current models.FeedbackQuery) models.FeedbackQuery {
	get := func(key string) (string, bool) {
		v, ok := q[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	out := models.FeedbackQuery{Page: 1, Limit: current.Limit}
	if v, ok := get("status"); ok {
		out.Status = models.FeedbackStatus(v)
	} else {
		out.Status = current.Status
	}
	if v, ok := get("search"); ok {
		out.Search = v
	} else {
		out.Search = current.Search
	}
	if v, ok := get("limit"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.Limit = n
		}
	}
	if v, ok := get("page"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			out.Page = n
		}
	}
	return out
}

func hasAny(q map[string][]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := q[k]; ok {
			return true
		}
	}
	return false
}

func superseded(err error) bool {
	return errors.Is(err, debounce.ErrSuperseded) || errors.Is(err, console.ErrStale)
}
