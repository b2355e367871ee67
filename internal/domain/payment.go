package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a gateway-side payment record. It is captured independently of
// the order ledger, which is why the two have to be reconciled at settlement
// time. OrderDbID is empty for payments the gateway could not link to an
// order.
type Payment struct {
	ID                string          `json:"id"`
	OrderDbID         string          `json:"order_db_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method,omitempty"`
	Verified          bool            `json:"verified"`
	RefundAmountTotal decimal.Decimal `json:"refund_amount_total"`
	CreatedAt         time.Time       `json:"created_at"`
}
