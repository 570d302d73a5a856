package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/metrics"
)

// NewRouter mounts the gateway routes. limiter may be nil.
func NewRouter(h *Handler, limiter Limiter, health http.Handler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(RequestLogger(logger))

	r.Route("/v1", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter, logger, ClientKeyFunc))
		}

		r.Post("/notifications", h.CreateNotification)
		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/ui", h.ListUINotifications)
		r.Get("/channels", h.ListChannels)
		r.Get("/templates/{name}", h.GetTemplate)
	})

	r.Get("/health", health.ServeHTTP)
	r.Handle("/metrics", metrics.Handler())

	return r
}
