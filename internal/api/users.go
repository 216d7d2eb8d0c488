package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB         *db.DB
	BcryptCost int
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := model.ValidateUsername(req.Username); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.DisplayName, req.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user created", "user", GetUser(r.Context()).Username, "new_user", user.Username, "admin", user.IsAdmin)
	jsonResponse(w, http.StatusCreated, user)
}

// SetActive handles PUT /api/users/{id}/active.
func (h *UsersHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "invalid_user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		writeError(w, r, apperr.InvalidInput("is_active_required"))
		return
	}

	// Prevent locking yourself out.
	current := GetUser(r.Context())
	if current.ID == id && !*req.IsActive {
		writeError(w, r, apperr.InvalidInput("cannot_deactivate_self"))
		return
	}

	user, err := store.SetUserActive(r.Context(), h.DB, id, *req.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user activation changed", "user", current.Username, "target_user", user.Username, "active", user.IsActive)
	jsonResponse(w, http.StatusOK, user)
}
