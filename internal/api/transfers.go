package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// TransfersHandler handles transfer endpoints.
type TransfersHandler struct {
	DB    *db.DB
	clock clock
}

type transferResponse struct {
	OK bool `json:"ok"`
	*model.TransferResult
	Time string `json:"time"`
}

type historyResponse struct {
	Items []model.TransferRecord `json:"items"`
	Limit int                    `json:"limit"`
}

// Create handles POST /api/transfer.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	res, err := store.Transfer(r.Context(), h.DB, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("transfer completed", "user", GetUser(r.Context()).Username,
		"device", res.DeviceName, "count", res.MovedCount,
		"from", res.FromObjectName, "to", res.ToObjectName)
	jsonResponse(w, http.StatusOK, transferResponse{OK: true, TransferResult: res, Time: h.clock.stamp()})
}

// History handles GET /api/transfer/history. With object_name set, only
// transfers into or out of that object are listed.
func (h *TransfersHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit = store.ClampLimit(limit)

	var items []model.TransferRecord
	if name := strings.TrimSpace(r.URL.Query().Get("object_name")); name != "" {
		items, err = store.ListTransfersForObject(r.Context(), h.DB, name, limit)
	} else {
		items, err = store.TransferHistory(r.Context(), h.DB, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.TransferRecord{}
	}
	jsonResponse(w, http.StatusOK, historyResponse{Items: items, Limit: limit})
}
