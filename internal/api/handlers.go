package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/orderdeck/settlement/internal/config"
	"github.com/orderdeck/settlement/internal/domain"
	"github.com/orderdeck/settlement/internal/export"
	"github.com/orderdeck/settlement/internal/repository"
	"github.com/orderdeck/settlement/internal/settlement"
)

// Metrics
var (
	settlementsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_batches_generated_total",
		Help: "Settlement batches generated (including regenerations)",
	})
	settlementsExported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_batches_exported_total",
		Help: "Settlement CSV exports served",
	})
	reconciliationGaps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_reconciliation_gaps_last",
		Help: "Reconciliation gap count of the most recent generation",
	})
	generateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_generate_duration_seconds",
		Help:    "Settlement generation latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	orderRepo   *repository.OrderRepo
	paymentRepo *repository.PaymentRepo
	settRepo    *repository.SettlementRepo
	cfg         *config.Config
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

// normalizeLocationID trims the location and falls back to "default" for
// single-location deployments that never send one.
func normalizeLocationID(s string) string {
	if v := strings.TrimSpace(s); v != "" {
		return v
	}
	return "default"
}

// parsePagination clamps limit to [1, 500] (default 50) and offset to >= 0.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = min(max(v, 1), 500)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		offset = max(v, 0)
	}
	return limit, offset
}

// --- GenerateSettlement ---

type generateRequest struct {
	LocationID string         `json:"location_id"`
	StartAt    string         `json:"start_at"`
	EndAt      string         `json:"end_at"`
	Currency   string         `json:"currency"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// GenerateSettlement computes and stores the settlement batch for one
// location and window. Regenerating an existing window overwrites its
// metrics and resets the batch to GENERATED.
func (h *Handlers) GenerateSettlement(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(generateLatency)
	defer timer.ObserveDuration()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	startAt := parseTime(req.StartAt)
	if startAt == nil {
		writeError(w, http.StatusBadRequest, "start_at must be a valid datetime string")
		return
	}
	endAt := parseTime(req.EndAt)
	if endAt == nil {
		writeError(w, http.StatusBadRequest, "end_at must be a valid datetime string")
		return
	}
	if !endAt.After(*startAt) {
		writeError(w, http.StatusBadRequest, "end_at must be later than start_at")
		return
	}

	locationID := normalizeLocationID(req.LocationID)
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = h.cfg.DefaultCurrency
	}

	// The two fetches are independent; payments are windowed but not
	// location-scoped, matching how the payment ledger is recorded.
	orders, err := h.orderRepo.ListForWindow(locationID, *startAt, *endAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payments, err := h.paymentRepo.ListForWindow(*startAt, *endAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics := settlement.ComputeMetrics(orders, payments)

	stored, err := h.settRepo.Upsert(&domain.SettlementBatch{
		ID:         uuid.NewString(),
		LocationID: locationID,
		StartAt:    *startAt,
		EndAt:      *endAt,
		Currency:   currency,
		Metrics:    metrics,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	settlementsGenerated.Inc()
	reconciliationGaps.Set(float64(metrics.ReconciliationGapCount))
	log.Printf("[api] Generated settlement %s for %s [%s, %s): %d orders, %d payments, %d gaps",
		stored.ID, locationID, startAt.UTC().Format(time.RFC3339),
		endAt.UTC().Format(time.RFC3339), metrics.OrderCount, metrics.PaymentCount,
		metrics.ReconciliationGapCount)

	writeJSON(w, http.StatusOK, map[string]any{"settlement": stored})
}

// --- ListSettlements ---

func (h *Handlers) ListSettlements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePagination(r)

	filter := repository.SettlementFilter{
		Status: strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Limit:  limit,
		Offset: offset,
	}
	if q.Get("location_id") != "" {
		filter.LocationID = normalizeLocationID(q.Get("location_id"))
	}

	batches, total, err := h.settRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"settlements": batches,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}

// --- GetSettlement ---

func (h *Handlers) GetSettlement(w http.ResponseWriter, r *http.Request) {
	batch, err := h.settRepo.GetByID(chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "settlement not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"settlement": batch})
}

// --- ExportSettlementCSV ---

// ExportSettlementCSV renders the batch as the bookkeeping CSV and marks it
// EXPORTED. The CSV byte format is frozen; see the export package.
func (h *Handlers) ExportSettlementCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batch, err := h.settRepo.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "settlement not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.settRepo.MarkExported(id, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	batch.Status = domain.StatusExported

	csv := export.WriteCSV(export.ToExportRows(*batch))

	settlementsExported.Inc()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=settlement_%s_%s.csv", batch.LocationID, batch.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Printf("[api] write csv: %v", err)
	}
}

// --- ListOrders ---

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := parseTime(q.Get("from"))
	to := parseTime(q.Get("to"))
	if from == nil || to == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	orders, err := h.orderRepo.ListForWindow(normalizeLocationID(q.Get("location_id")), *from, *to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  len(orders),
	})
}

// --- ListPayments ---

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := parseTime(q.Get("from"))
	to := parseTime(q.Get("to"))
	if from == nil || to == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	payments, err := h.paymentRepo.ListForWindow(*from, *to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"total":    len(payments),
	})
}

// --- Healthz ---

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
