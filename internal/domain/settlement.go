package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BatchStatus string

const (
	StatusGenerated BatchStatus = "GENERATED"
	StatusExported  BatchStatus = "EXPORTED"
)

// SettlementMetrics is the reconciled aggregate for one settlement window.
// All monetary fields are rounded to 2 fraction digits, half away from zero.
// The totals are accumulated independently from their source fields, so
// NetSales is not guaranteed to equal GrossSales - DiscountTotal + TaxTotal
// when the underlying records disagree; the metrics report both sides as-is.
type SettlementMetrics struct {
	OrderCount             int             `json:"order_count"`
	PaymentCount           int             `json:"payment_count"`
	GrossSales             decimal.Decimal `json:"gross_sales"`
	DiscountTotal          decimal.Decimal `json:"discount_total"`
	TaxTotal               decimal.Decimal `json:"tax_total"`
	NetSales               decimal.Decimal `json:"net_sales"`
	CashSales              decimal.Decimal `json:"cash_sales"`
	OnlineSales            decimal.Decimal `json:"online_sales"`
	RefundTotal            decimal.Decimal `json:"refund_total"`
	ReconciliationGapCount int             `json:"reconciliation_gap_count"`
}

// SettlementBatch is the persisted settlement for one (location, window)
// pair. At most one batch exists per (LocationID, StartAt, EndAt);
// regenerating the same window overwrites the metrics in place. Status moves
// GENERATED -> EXPORTED exactly once, on first CSV export.
type SettlementBatch struct {
	ID         string            `json:"id"`
	LocationID string            `json:"location_id"`
	StartAt    time.Time         `json:"start_at"`
	EndAt      time.Time         `json:"end_at"`
	Currency   string            `json:"currency"`
	Status     BatchStatus       `json:"status"`
	Metrics    SettlementMetrics `json:"metrics"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	ExportedAt *time.Time        `json:"exported_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
