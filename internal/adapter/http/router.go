package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/adapter/http/handler"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SessionHandler     *handler.SessionHandler
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	TransferHandler    *handler.TransferHandler
	ReportHandler      *handler.ReportHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	// Authenticator puts the caller's identity into the request context.
	// Defaults to trusting the X-User-ID header.
	Authenticator func(http.Handler) http.Handler

	IdempotencyStore usecase.IdempotencyStore // optional
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter // optional
	Metrics          *metrics.Metrics        // optional
	MetricsHandler   http.Handler            // optional, served on /metrics
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	authenticate := cfg.Authenticator
	if authenticate == nil {
		authenticate = middleware.HeaderIdentity(cfg.Metrics)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		// Keys are scoped to the caller, so this runs after authentication.
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		// Session
		r.Post("/session", cfg.SessionHandler.Open)
		r.Delete("/session", cfg.SessionHandler.Close)

		// Accounts
		r.Get("/accounts", cfg.AccountHandler.List)
		r.Post("/accounts", cfg.AccountHandler.Create)
		r.Get("/accounts/{id}", cfg.AccountHandler.Get)
		r.Patch("/accounts/{id}/status", cfg.AccountHandler.UpdateStatus)
		r.Get("/accounts/{id}/transactions", cfg.AccountHandler.ListTransactions)

		// Transactions
		r.Get("/transactions", cfg.TransactionHandler.List)
		r.Post("/transactions", cfg.TransactionHandler.Create)
		r.Put("/transactions/{id}", cfg.TransactionHandler.Update)
		r.Delete("/transactions/{id}", cfg.TransactionHandler.Delete)

		// Transfers
		r.Post("/transfers", cfg.TransferHandler.Create)

		// Reports
		r.Get("/reports/monthly", cfg.ReportHandler.Monthly)
		r.Get("/reports/categories", cfg.ReportHandler.Categories)

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
