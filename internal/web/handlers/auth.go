package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/auth"
	"github.com/foxzi/backoffice/internal/session"
	"github.com/foxzi/backoffice/internal/web/middleware"
)

// LoginPage shows the login form
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", h.pageData(r, "Sign in", ""))
}

// Login signs in against the admin API and starts a browser session
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginError(w, r, "", "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.loginError(w, r, email, "Email and password are required")
		return
	}

	sess := session.New(email, h.opts.SessionTTL)
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to create session", "error", err)
		h.loginError(w, r, email, "Internal error")
		return
	}

	ctx := session.WithID(r.Context(), sess.ID)
	if _, err := h.auth.SignIn(ctx, email, password); err != nil {
		h.sessions.Delete(r.Context(), sess.ID)
		h.logger.Warn("sign in failed", "email", email, "error", err)
		h.loginError(w, r, email, signInErrorText(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	redirect(w, r, "/")
}

func signInErrorText(err error) string {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Invalid email or password"
	}
	if msg := apiclient.Message(err); msg != "" {
		return msg
	}
	return "Sign in failed"
}

func (h *Handlers) loginError(w http.ResponseWriter, r *http.Request, email, msg string) {
	data := h.pageData(r, "Sign in", "")
	data["Email"] = email
	data["Error"] = msg
	h.render(w, http.StatusUnauthorized, "login", data)
}

// Logout drops the session, its tokens and its page state
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.CookieName); err == nil && cookie.Value != "" {
		ctx := session.WithID(r.Context(), cookie.Value)
		if err := h.auth.Logout(ctx); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
		h.pages.Forget(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	redirect(w, r, "/auth/login")
}
