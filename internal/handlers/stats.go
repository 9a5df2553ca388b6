package handlers

import (
	"net/http"

	"mistakevault/internal/service"
)

// StatsHandler serves the summary endpoints.
type StatsHandler struct {
	svc service.RecordService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc service.RecordService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Stats handles GET /api/stats.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Topics handles GET /api/topics.
func (h *StatsHandler) Topics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topics, err := h.svc.Topics(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list topics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, topics)
}
