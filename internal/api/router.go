package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/good-yellow-bee/statushook/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	// Health and metrics (public, no auth)
	r.Get("/health", s.handleHealth)
	r.Get("/healthz/live", s.healthHandler.Live)
	r.Get("/healthz/ready", s.healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Webhook routes (token protected)
	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenAuth(s.config.WebhookToken, s.config.AuthDisabled))
		r.Post("/webhook/uptime", s.handleWebhook)
		r.Post("/webhook/uptime/replay", s.handleReplay)
	})

	return r
}
