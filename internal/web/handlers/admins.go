package handlers

import (
	"net/http"
	"strings"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/auth"
)

func (h *Handlers) AdminNew(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "Create Admin", "admins")
	data["Form"] = auth.SignUpRequest{UserType: "individual"}
	h.render(w, http.StatusOK, "admins_new", data)
}

// AdminCreate registers another admin account through the API. The new
// account's tokens are discarded; the current session is unchanged.
func (h *Handlers) AdminCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.error(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	req := auth.SignUpRequest{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		UserType: r.FormValue("user_type"),
	}

	data := h.pageData(r, "Create Admin", "admins")

	resp, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		msg := apiclient.Message(err)
		if msg == "" {
			msg = err.Error()
		}
		req.Password = ""
		data["Form"] = req
		data["Error"] = msg
		h.render(w, http.StatusUnprocessableEntity, "admins_new", data)
		return
	}

	created := req.Email
	if resp != nil && resp.User != nil && resp.User.Email != "" {
		created = resp.User.Email
	}
	data["Form"] = auth.SignUpRequest{UserType: "individual"}
	data["Success"] = "Admin account created for " + created
	h.render(w, http.StatusOK, "admins_new", data)
}
