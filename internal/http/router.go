package http

import (
	"net/http"

	"usbtop/internal/shared/loggers"
	"usbtop/internal/shared/metrics"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(stats StatsService, httpLogger loggers.Logger) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, httpLogger)

	router.Get("/metrics", metrics.PromHTTP.Handler().ServeHTTP)
	router.Get("/healthz", errorHandlingAdapter(NewHealthHandler(stats)))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", errorHandlingAdapter(NewSnapshotHandler(stats)))
		r.Get("/devices/{bus}/{address}", errorHandlingAdapter(NewDeviceStatsHandler(stats)))
		r.Delete("/devices/{bus}/{address}", errorHandlingAdapter(NewEvictDeviceHandler(stats)))
		r.Post("/devices/{bus}/{address}/peak/reset", errorHandlingAdapter(NewResetPeakHandler(stats)))
	})

	return router
}
