package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/harper/dealdesk/internal/api/handlers"
	"github.com/harper/dealdesk/internal/api/middleware"
	"github.com/harper/dealdesk/internal/auth"
	"github.com/harper/dealdesk/internal/crm"
	"github.com/harper/dealdesk/internal/seats"
	"github.com/harper/dealdesk/internal/uploads"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	SeatService    *seats.Service
	CRMService     *crm.Service
	UploadStore    *uploads.Store
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	seatHandler := handlers.NewSeatHandler(cfg.SeatService)
	companyHandler := handlers.NewCompanyHandler(cfg.DB)
	dealHandler := handlers.NewDealHandler(cfg.DB)
	dashboardHandler := handlers.NewDashboardHandler(cfg.DB)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadStore)
	crmHandler := handlers.NewCRMHandler(cfg.CRMService, cfg.AsynqClient)
	exportHandler := handlers.NewExportHandler(cfg.AsynqClient)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Payment provider webhook. Authenticated by the payer's email
		// inside the signed payload, not by session.
		r.Post("/billing/confirm", seatHandler.ConfirmPayment)

		// Authenticated routes. Activation is NOT required here: these
		// are exactly the operations an inactive user needs to get in.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", authHandler.Me)
			r.Post("/access/request", seatHandler.RequestAccess)
			r.Post("/invites/redeem", seatHandler.RedeemInvite)
		})

		// Active-member routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Use(middleware.RequireActive(cfg.AuthService))

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", companyHandler.List)
				r.Post("/", companyHandler.Create)
				r.Get("/{id}", companyHandler.Get)
				r.Put("/{id}", companyHandler.Update)
				r.Delete("/{id}", companyHandler.Delete)
			})

			r.Route("/deals", func(r chi.Router) {
				r.Get("/", dealHandler.List)
				r.Post("/", dealHandler.Create)
				r.Get("/{id}", dealHandler.Get)
				r.Put("/{id}/stage", dealHandler.UpdateStage)
				r.Delete("/{id}", dealHandler.Delete)
			})

			r.Get("/dashboard/summary", dashboardHandler.Summary)

			r.Route("/uploads", func(r chi.Router) {
				r.Get("/", uploadHandler.List)
				r.Post("/", uploadHandler.Create)
				r.Get("/{id}/download", uploadHandler.Download)
				r.Delete("/{id}", uploadHandler.Delete)
			})

			r.Route("/crm/connections", func(r chi.Router) {
				r.Get("/", crmHandler.List)
				r.Post("/", crmHandler.Create)
				r.Delete("/{id}", crmHandler.Delete)
				r.Post("/{id}/sync", crmHandler.Sync)
			})

			r.Post("/exports/deck", exportHandler.Deck)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/admin/users", seatHandler.ListUsers)
				r.Put("/admin/users/{id}/active", seatHandler.SetUserActive)
				r.Post("/admin/invites", seatHandler.IssueInvites)
				r.Get("/admin/seats", seatHandler.SeatUsage)
			})
		})
	})

	return &Router{Router: r}
}
