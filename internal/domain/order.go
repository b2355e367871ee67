package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "Cash"
	MethodOnline PaymentMethod = "Online"
)

// Bills is the monetary breakdown of a single order. Older orders carry only
// Total; SubtotalBeforeDiscount was added later and is nil (or zero, the
// legacy schema default) when the order predates it.
type Bills struct {
	Total                  decimal.Decimal  `json:"total"`
	Tax                    decimal.Decimal  `json:"tax"`
	TotalWithTax           decimal.Decimal  `json:"total_with_tax"`
	DiscountTotal          decimal.Decimal  `json:"discount_total"`
	SubtotalBeforeDiscount *decimal.Decimal `json:"subtotal_before_discount,omitempty"`
}

// GrossContribution returns the amount this order adds to gross sales:
// the pre-discount subtotal when one was recorded, otherwise the legacy
// Total field. A zero subtotal is treated as unset.
func (b Bills) GrossContribution() decimal.Decimal {
	if b.SubtotalBeforeDiscount != nil && !b.SubtotalBeforeDiscount.IsZero() {
		return *b.SubtotalBeforeDiscount
	}
	return b.Total
}

type Order struct {
	ID            string        `json:"id"`
	LocationID    string        `json:"location_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Bills         Bills         `json:"bills"`
	CreatedAt     time.Time     `json:"created_at"`
}
