package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/insights-backend/internal/handlers"
	"github.com/GregMSThompson/insights-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	lm := middleware.NewLoggerMiddleware(deps.Log)
	am := middleware.NewMiddleware(deps.Firebase)

	r.Use(chimiddleware.RequestID)
	r.Use(lm.LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(am.FirebaseAuth)

		r.Mount("/uploads", handlers.NewUploadHandlers(deps).UploadRoutes())
		r.Mount("/analyses", handlers.NewAnalysisHandlers(deps).AnalysisRoutes())
		r.Mount("/integrations", handlers.NewIntegrationHandlers(deps).IntegrationRoutes())
		r.Mount("/schedules", handlers.NewScheduleHandlers(deps).ScheduleRoutes())
		r.Mount("/metrics", handlers.NewMetricsHandlers(deps).MetricsRoutes())
	})
	return r
}
