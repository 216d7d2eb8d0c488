package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/auth"
)

// AuthHandler handles login and the current-user endpoint.
type AuthHandler struct {
	Auth  *auth.Authenticator
	clock clock
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Time  string `json:"time"`
}

type currentUserResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
	Time     string `json:"time"`
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperr.Kind(err) == apperr.ErrUnauthorized {
			slog.Warn("login failed", "username", req.Username, "reason", apperr.Reason(err), "remote", r.RemoteAddr)
		}
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user", user.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Time: h.clock.stamp()})
}

// Me handles GET /api/user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if user == nil {
		writeError(w, r, apperr.Unauthorized("user_not_found"))
		return
	}

	jsonResponse(w, http.StatusOK, currentUserResponse{
		Username: user.Username,
		Name:     user.DisplayName,
		IsAdmin:  user.IsAdmin,
		Time:     h.clock.localStamp(),
	})
}
