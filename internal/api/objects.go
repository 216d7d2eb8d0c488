package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ObjectsHandler handles object endpoints.
type ObjectsHandler struct {
	DB    *db.DB
	clock clock
}

type createObjectRequest struct {
	ObjectName    string `json:"object_name"`
	ObjectAddress string `json:"object_address"`
}

type createObjectResponse struct {
	OK     bool          `json:"ok"`
	Object *model.Object `json:"object"`
	Time   string        `json:"time"`
}

// Create handles POST /api/objects.
func (h *ObjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createObjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	obj, err := store.CreateObject(r.Context(), h.DB, req.ObjectName, req.ObjectAddress)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("object created", "user", GetUser(r.Context()).Username, "object", obj.Name)
	jsonResponse(w, http.StatusCreated, createObjectResponse{OK: true, Object: obj, Time: h.clock.stamp()})
}

// Get handles GET /api/objects/{id}.
func (h *ObjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "invalid_object_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	obj, err := store.GetObject(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, obj)
}

// GetByName handles GET /api/objects/by-name/{name}.
func (h *ObjectsHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	obj, err := store.GetObjectByName(r.Context(), h.DB, r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, obj)
}

// List handles GET /api/objects. Each item carries the object's devices.
func (h *ObjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := store.ListObjectsWithDevices(r.Context(), h.DB, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.ObjectSummary{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Full handles GET /api/object/full.
func (h *ObjectsHandler) Full(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("object_name")
	if name == "" {
		writeError(w, r, apperr.InvalidInput("object_name_required"))
		return
	}

	summary, err := store.GetObjectFull(r.Context(), h.DB, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}
