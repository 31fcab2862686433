// Package router assembles the HTTP surface: webhooks, dashboard, health,
// and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sidekickhq/leadline/internal/http/handlers"
	httpmiddleware "github.com/sidekickhq/leadline/internal/http/middleware"
	"github.com/sidekickhq/leadline/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Webhooks       *handlers.WebhookHandler
	Dashboard      *handlers.DashboardHandler
	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Webhooks.Health)
	r.Post("/webhook/lead", cfg.Webhooks.ReceiveLead)
	r.Post("/webhook/sms", cfg.Webhooks.ReceiveSMS)

	if cfg.Dashboard != nil {
		r.Get("/dashboard", cfg.Dashboard.Render)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
