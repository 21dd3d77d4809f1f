package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/backoffice/internal/console"
	"github.com/foxzi/backoffice/internal/metrics"
	"github.com/foxzi/backoffice/internal/preview"
)

// WaitlistList renders the waitlist page and consumes any pending alert
func (h *Handlers) WaitlistList(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Waitlist(sessionID(r))

	var err error
	if r.URL.Query().Get("refresh") != "" {
		err = page.Load(r.Context())
	} else {
		err = page.EnsureLoaded(r.Context())
	}
	if err != nil && !errors.Is(err, console.ErrStale) {
		h.logger.Warn("waitlist load failed", "error", err)
	}

	data := h.pageData(r, "Waitlist", "waitlist")
	data["Alert"] = page.TakeAlert()
	data["View"] = page.View()
	h.render(w, http.StatusOK, "waitlist", data)
}

// WaitlistSearch is the debounced live search over entrants
func (h *Handlers) WaitlistSearch(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Waitlist(sessionID(r))

	err := page.Search(r.Context(), r.URL.Query().Get("q"))
	if superseded(err) {
		metrics.IncSearchSuperseded("waitlist")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Warn("waitlist search failed", "error", err)
	}

	h.renderPartial(w, "waitlist_table", map[string]any{"View": page.View()})
}

func (h *Handlers) WaitlistToggle(w http.ResponseWriter, r *http.Request) {
	h.pages.Waitlist(sessionID(r)).Toggle(chi.URLParam(r, "id"))
	redirect(w, r, "/waitlist")
}

func (h *Handlers) WaitlistToggleAll(w http.ResponseWriter, r *http.Request) {
	h.pages.Waitlist(sessionID(r)).ToggleAll()
	redirect(w, r, "/waitlist")
}

// ComposePage opens the composer when needed and renders it. Without a
// selection the user goes back to the waitlist with an alert.
func (h *Handlers) ComposePage(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Waitlist(sessionID(r))

	if page.View().Composer == nil {
		if err := page.OpenComposer(r.Context()); err != nil {
			redirect(w, r, "/waitlist")
			return
		}
	}

	data := h.pageData(r, "Send Email", "waitlist")
	data["Alert"] = page.TakeAlert()
	view := page.View()
	if view.Composer == nil {
		redirect(w, r, "/waitlist")
		return
	}
	data["Composer"] = view.Composer
	h.render(w, http.StatusOK, "composer", data)
}

// ComposeTemplate prefills the draft from the chosen template
func (h *Handlers) ComposeTemplate(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Waitlist(sessionID(r))
	if err := page.SelectTemplate(r.FormValue("template_id")); err != nil {
		if errors.Is(err, console.ErrComposerClosed) {
			redirect(w, r, "/waitlist")
			return
		}
		h.error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	redirect(w, r, "/waitlist/compose")
}

// ComposeMode keeps the edits and switches between edit and preview
func (h *Handlers) ComposeMode(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Waitlist(sessionID(r))
	if err := h.updateDraft(r, page); err != nil {
		redirect(w, r, "/waitlist")
		return
	}
	if err := page.SetViewMode(console.ViewMode(r.FormValue("mode"))); err != nil {
		if errors.Is(err, console.ErrComposerClosed) {
			redirect(w, r, "/waitlist")
			return
		}
		h.error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	redirect(w, r, "/waitlist/compose")
}

// ComposePreview serves the sanitized draft for the sandboxed preview frame
func (h *Handlers) ComposePreview(w http.ResponseWriter, r *http.Request) {
	draft, _, err := h.pages.Waitlist(sessionID(r)).Draft()
	if err != nil {
		http.Error(w, "Composer is not open", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", preview.ContentSecurityPolicy)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(preview.Document(draft.HTML, draft.Text)))
}

// ComposeSend submits the draft to every selected entrant
func (h *Handlers) ComposeSend(w http.ResponseWriter, r *http.Request) {
	page := h.pages.Waitlist(sessionID(r))
	if err := h.updateDraft(r, page); err != nil {
		redirect(w, r, "/waitlist")
		return
	}

	resp, err := page.Send(r.Context())
	switch {
	case errors.Is(err, console.ErrComposerClosed):
		redirect(w, r, "/waitlist")
	case err != nil:
		if !errors.Is(err, console.ErrInvalidDraft) {
			h.logger.Warn("email send failed", "error", err)
		}
		redirect(w, r, "/waitlist/compose")
	case !resp.Success:
		redirect(w, r, "/waitlist/compose")
	default:
		h.logger.Info("waitlist email sent", "recipients", resp.Recipients(0), "failed", resp.FailedCount)
		redirect(w, r, "/waitlist")
	}
}

func (h *Handlers) ComposeClose(w http.ResponseWriter, r *http.Request) {
	h.pages.Waitlist(sessionID(r)).CloseComposer()
	redirect(w, r, "/waitlist")
}

// updateDraft copies the posted fields into the draft. Absent fields keep
// their value.
func (h *Handlers) updateDraft(r *http.Request, page *console.WaitlistPage) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	draft, _, err := page.Draft()
	if err != nil {
		return err
	}

	subject, text, html := draft.Subject, draft.Text, draft.HTML
	if v, ok := r.PostForm["subject"]; ok && len(v) > 0 {
		subject = v[0]
	}
	if v, ok := r.PostForm["text"]; ok && len(v) > 0 {
		text = v[0]
	}
	if v, ok := r.PostForm["html"]; ok && len(v) > 0 {
		html = v[0]
	}
	return page.UpdateDraft(subject, text, html)
}
