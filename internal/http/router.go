package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mistakevault/internal/handlers"
	"mistakevault/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RecordService service.RecordService
	Store         handlers.StoreChecker
	// Model is optional; when nil the health check reports the vision model as disabled.
	Model handlers.ModelChecker
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	recordHandler := handlers.NewRecordHandler(deps.RecordService)
	practiceHandler := handlers.NewPracticeHandler(deps.RecordService)
	statsHandler := handlers.NewStatsHandler(deps.RecordService)
	uploadHandler := handlers.NewUploadHandler(deps.RecordService)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Model)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Method(http.MethodPost, "/uploads", uploadHandler)
		r.Get("/topics", statsHandler.Topics)
		r.Get("/stats", statsHandler.Stats)

		r.Route("/records", func(r chi.Router) {
			r.Get("/", recordHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recordHandler.Get)
				r.Patch("/", recordHandler.Update)
				r.Delete("/", recordHandler.Delete)
				r.Get("/attempts", recordHandler.Attempts)
				r.Get("/image", recordHandler.Image)
				r.Post("/check", practiceHandler.Check)
				r.Post("/learn", practiceHandler.Learn)
			})
		})
	})

	return r
}
