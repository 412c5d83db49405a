package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gpneto/Clinica360-sub004/internal/http/handlers"
	httpmiddleware "github.com/gpneto/Clinica360-sub004/internal/http/middleware"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	ChatWebhook     *handlers.ChatWebhookHandler
	Admin           *handlers.AdminHandler
	MetricsHandler  http.Handler
	AdminAuthSecret string
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: webhooks and operational probes.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ChatWebhook != nil {
			public.Post("/webhooks/chat/{tenantID}/messages", cfg.ChatWebhook.HandleMessage)
		}
	})

	// Admin endpoints, JWT-protected.
	if cfg.Admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/tenants/{tenantID}/settings/refresh", cfg.Admin.RefreshSettings)
			admin.Post("/tenants/{tenantID}/settings/invalidate", cfg.Admin.InvalidateSettings)
			admin.Post("/reminders/sweep", cfg.Admin.TriggerSweep)
		})
	}

	return r
}
