package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderdeck/settlement/internal/config"
	"github.com/orderdeck/settlement/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	orderRepo *repository.OrderRepo,
	paymentRepo *repository.PaymentRepo,
	settRepo *repository.SettlementRepo,
	cfg *config.Config,
) http.Handler {
	h := &Handlers{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		settRepo:    settRepo,
		cfg:         cfg,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Settlements.
		r.Post("/settlements/generate", h.GenerateSettlement)
		r.Get("/settlements", h.ListSettlements)
		r.Get("/settlements/{id}", h.GetSettlement)
		r.Get("/settlements/{id}/export", h.ExportSettlementCSV)

		// Source ledgers.
		r.Get("/orders", h.ListOrders)
		r.Get("/payments", h.ListPayments)
	})

	return r
}
