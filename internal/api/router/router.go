package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/smartbot-platform/internal/channels/whatsapp"
	"github.com/wolfman30/smartbot-platform/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/smartbot-platform/internal/http/middleware"
	"github.com/wolfman30/smartbot-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        *whatsapp.WebhookHandler
	Health         http.Handler
	MetricsHandler http.Handler

	// Admin endpoints are mounted only when both are set.
	AdminConversations *handlers.AdminConversationsHandler
	AdminAuthSecret    string
	AdminRateLimit     float64
	AdminRateBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	health := cfg.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}
	r.Method(http.MethodGet, "/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Webhook != nil {
		r.Get("/webhook", cfg.Webhook.HandleVerification)
		r.Post("/webhook", cfg.Webhook.HandleInbound)
	}

	if cfg.AdminConversations != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			if cfg.AdminRateLimit > 0 {
				admin.Use(httpmiddleware.RateLimit(cfg.AdminRateLimit, cfg.AdminRateBurst))
			}
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/conversations/{sender}", cfg.AdminConversations.GetConversation)
			admin.Delete("/conversations/{sender}", cfg.AdminConversations.ResetConversation)
		})
	}

	return r
}
