package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/portfelo/ledger-backend/internal/api/handlers"
	custommiddleware "github.com/portfelo/ledger-backend/internal/api/middleware"
	"github.com/portfelo/ledger-backend/internal/config"
	"github.com/portfelo/ledger-backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	transactionService *service.TransactionService,
	holdingsService *service.HoldingsService,
	instrumentService *service.InstrumentService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace, no user identity required
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		// Everything below acts on a single user's ledger
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireUser)

			r.Route("/transaction", func(r chi.Router) {
				transactionHandler := handlers.NewTransactionHandler(transactionService)
				r.Get("/", transactionHandler.ListTransactions)
				r.Post("/", transactionHandler.CreateTransaction)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Get("/", transactionHandler.GetTransaction)
					r.Put("/", transactionHandler.UpdateTransaction)
					r.Delete("/", transactionHandler.DeleteTransaction)
				})
			})

			r.Route("/holdings", func(r chi.Router) {
				holdingsHandler := handlers.NewHoldingsHandler(holdingsService)
				r.Get("/", holdingsHandler.GetHoldings)
			})

			r.Route("/instrument", func(r chi.Router) {
				instrumentHandler := handlers.NewInstrumentHandler(instrumentService)
				r.Post("/custom", instrumentHandler.CreateCustomInstrument)
				r.With(custommiddleware.ValidateUUIDMiddleware).
					Get("/{uuid}", instrumentHandler.GetInstrument)
				r.With(custommiddleware.ValidateUUIDMiddleware).
					Get("/custom/{uuid}/projection", instrumentHandler.ProjectCustomValue)
			})
		})
	})

	return r
}
