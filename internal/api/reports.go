package api

import (
	"net/http"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ReportsHandler serves search, statistics and the health check.
type ReportsHandler struct {
	DB    *db.DB
	clock clock
}

type searchResponse struct {
	*model.SearchResult
	Time string `json:"time"`
}

type statsResponse struct {
	Time string `json:"time"`
	*model.Stats
}

// Search handles GET /api/search.
func (h *ReportsHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := store.Search(r.Context(), h.DB, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, searchResponse{SearchResult: res, Time: h.clock.stamp()})
}

// Stats handles GET /api/stats.
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.CollectStats(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, statsResponse{Time: h.clock.stamp(), Stats: stats})
}

// Health handles GET /healthz.
func (h *ReportsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": h.DB.Dialect().Name(),
	})
}
