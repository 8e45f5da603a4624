package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/http/handlers"
	httpmiddleware "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/http/middleware"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/messaging"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	AdminSurvey      *handlers.AdminSurveyHandler
	AdminAuthSecret  string
	MetricsHandler   http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints (webhook, liveness, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/", cfg.MessagingHandler.Home)
		public.Get("/health", cfg.MessagingHandler.HealthCheck)
		public.Post("/receive_response", cfg.MessagingHandler.ReceiveResponse)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.AdminSurvey != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, cfg.Logger))
			admin.Post("/broadcast", cfg.AdminSurvey.Broadcast)
			admin.Get("/conversations", cfg.AdminSurvey.ListConversations)
			admin.Get("/conversations/{recipientID}", cfg.AdminSurvey.GetConversation)
		})
	}

	return r
}
