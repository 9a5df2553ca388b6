package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_health.go -package=mocks mistakevault/internal/handlers StoreChecker,ModelChecker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mistakevault/internal/contextutil"
	"mistakevault/internal/storage"
)

// StoreChecker reads the record store.
type StoreChecker interface {
	Load(ctx context.Context) ([]storage.Record, error)
}

// ModelChecker reports whether the vision model is served.
type ModelChecker interface {
	ModelAvailable(ctx context.Context) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              StoreChecker
	model              ModelChecker
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. model may be nil when no vision server is configured.
func NewHealthHandler(store StoreChecker, model ModelChecker) *HealthHandler {
	return &HealthHandler{
		store:              store,
		model:              model,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Records   int               `json:"records"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
//
// An unreadable store is unhealthy (503). An unreachable vision model only degrades
// verification, so the response stays 200 with status "degraded".
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK

	count, storeOK := h.checkStore(checkCtx, logger)
	if storeOK {
		checks["store"] = "ok"
	} else {
		checks["store"] = "error"
		issues = append(issues, "store_unreadable")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	switch h.checkModel(checkCtx, logger) {
	case "ok":
		checks["vision_model"] = "ok"
	case "disabled":
		checks["vision_model"] = "disabled"
	default:
		checks["vision_model"] = "error"
		issues = append(issues, "vision_model_unavailable")
		if status == "healthy" {
			status = "degraded"
		}
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Records:   count,
		Issues:    issues,
	})
}

func (h *HealthHandler) checkStore(ctx context.Context, logger *slog.Logger) (int, bool) {
	records, err := h.store.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "store health check failed", "error", err)
		return 0, false
	}
	return len(records), true
}

func (h *HealthHandler) checkModel(ctx context.Context, logger *slog.Logger) string {
	if h.model == nil {
		return "disabled"
	}
	ok, err := h.model.ModelAvailable(ctx)
	if err != nil {
		logger.WarnContext(ctx, "vision model health check failed", "error", err)
		return "error"
	}
	if !ok {
		logger.WarnContext(ctx, "vision model not installed on server")
		return "error"
	}
	return "ok"
}
