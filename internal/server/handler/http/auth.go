package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/expedientes/internal/models"
)

// AuthService defines the authentication operations required by the
// console handlers.
type AuthService interface {
	// Login exchanges credentials for a session.
	Login(ctx context.Context, username, password string) (models.User, error)
	// Logout ends the session and reports whether one existed.
	Logout() bool
	// Current returns the logged in user.
	Current() (models.User, bool)
}

// AuthHandler handles the login view.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	ReturnTo      string       `json:"returnTo,omitempty"`
}

// Login handles POST /login. On success the response echoes the returnTo
// query parameter set by the authentication guard, so the caller can go
// back to where it was sent from.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &user,
		ReturnTo:      r.URL.Query().Get("returnTo"),
	})
}

// Session handles GET /login: the current session, if any.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{ReturnTo: r.URL.Query().Get("returnTo")}
	if user, ok := h.AuthService.Current(); ok {
		resp.Authenticated, resp.User = true, &user
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.AuthService.Logout()
	writeJSON(w, http.StatusOK, sessionResponse{})
}
