// Package router wires the HTTP surface together.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadlinehq/leadline/internal/agents"
	"github.com/leadlinehq/leadline/internal/analytics"
	"github.com/leadlinehq/leadline/internal/campaigns"
	httpmiddleware "github.com/leadlinehq/leadline/internal/http/middleware"
	"github.com/leadlinehq/leadline/internal/leads"
	"github.com/leadlinehq/leadline/internal/partners"
	"github.com/leadlinehq/leadline/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger           *logging.Logger
	LeadsHandler     *leads.Handler
	CampaignsHandler *campaigns.Handler
	AgentsHandler    *agents.Handler
	AnalyticsHandler *analytics.Handler
	PartnersHandler  *partners.Handler

	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitPerSecond of 0 disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Partner management, operator-only.
	if cfg.PartnersHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/partners", func(r chi.Router) {
				r.Post("/", cfg.PartnersHandler.CreatePartner)
				r.Get("/", cfg.PartnersHandler.ListPartners)
				r.Get("/{partnerID}", cfg.PartnersHandler.GetPartner)
				r.Patch("/{partnerID}/status", cfg.PartnersHandler.SetPartnerStatus)
			})
		})
	}

	// Client-scoped API routes.
	r.Group(func(client chi.Router) {
		client.Use(requireClientID)

		client.Route("/leads", func(r chi.Router) {
			r.Get("/", cfg.LeadsHandler.ListLeads)
			r.Post("/", cfg.LeadsHandler.CreateLead)
			r.Post("/import", cfg.LeadsHandler.ImportLeads)
			r.Delete("/{leadID}", cfg.LeadsHandler.DeleteLead)
		})

		if cfg.CampaignsHandler != nil {
			client.Route("/campaigns", func(r chi.Router) {
				r.Post("/", cfg.CampaignsHandler.CreateCampaign)
				r.Get("/", cfg.CampaignsHandler.ListCampaigns)
				r.Get("/jobs/{jobID}", cfg.CampaignsHandler.GetSendJob)
				r.Route("/{campaignID}", func(r chi.Router) {
					r.Get("/", cfg.CampaignsHandler.GetCampaign)
					r.Put("/", cfg.CampaignsHandler.UpdateCampaign)
					r.Patch("/status", cfg.CampaignsHandler.SetCampaignStatus)
					r.Post("/test-send", cfg.CampaignsHandler.TestSend)
				})
			})
		}

		if cfg.AgentsHandler != nil {
			client.Route("/agents/config", func(r chi.Router) {
				r.Get("/", cfg.AgentsHandler.GetConfig)
				r.Put("/", cfg.AgentsHandler.PutConfig)
			})
		}

		if cfg.AnalyticsHandler != nil {
			client.Get("/analytics/summary", cfg.AnalyticsHandler.GetSummary)
		}
	})

	return r
}
