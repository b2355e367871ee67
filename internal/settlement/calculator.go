// Package settlement holds the pure settlement calculator: it reduces the
// orders and payments of one window into a SettlementMetrics record and, as
// part of that, reconciles online-paid orders against the payment ledger.
package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/orderdeck/settlement/internal/domain"
	"github.com/orderdeck/settlement/internal/money"
)

// centTolerance is the absolute amount difference allowed between an online
// order and its payment before the pair counts as a reconciliation gap.
// One cent absorbs rounding noise between the two ledgers.
var centTolerance = decimal.New(1, -2)

// ComputeMetrics reduces a window's orders and payments into one settlement
// metrics record. It never fails: empty inputs yield all-zero metrics, and
// malformed individual records contribute zeroes instead of aborting the
// batch. Calling it twice with the same inputs produces identical output;
// callers rely on that to regenerate an existing window safely.
//
// Each total is accumulated independently from its own source field and
// rounded once after full accumulation. OnlineSales is derived from the
// already-rounded NetSales and CashSales and rounded again.
func ComputeMetrics(orders []domain.Order, payments []domain.Payment) domain.SettlementMetrics {
	var gross, discount, tax, net, cash, refund decimal.Decimal

	for _, o := range orders {
		gross = gross.Add(o.Bills.GrossContribution())
		discount = discount.Add(o.Bills.DiscountTotal)
		tax = tax.Add(o.Bills.Tax)
		net = net.Add(o.Bills.TotalWithTax)
		if o.PaymentMethod == domain.MethodCash {
			cash = cash.Add(o.Bills.TotalWithTax)
		}
	}

	// Refunds are summed over every payment in the window, linked or not.
	for _, p := range payments {
		refund = refund.Add(p.RefundAmountTotal)
	}

	gross = money.Round2(gross)
	discount = money.Round2(discount)
	tax = money.Round2(tax)
	net = money.Round2(net)
	cash = money.Round2(cash)
	refund = money.Round2(refund)

	// Floor at zero: cash can exceed net on inconsistent source data, and
	// online sales must never be reported negative.
	online := money.Round2(decimal.Max(net.Sub(cash), decimal.Zero))

	return domain.SettlementMetrics{
		OrderCount:             len(orders),
		PaymentCount:           len(payments),
		GrossSales:             gross,
		DiscountTotal:          discount,
		TaxTotal:               tax,
		NetSales:               net,
		CashSales:              cash,
		OnlineSales:            online,
		RefundTotal:            refund,
		ReconciliationGapCount: countReconciliationGaps(orders, payments),
	}
}

// paymentIndexByOrder builds the order-id -> payment lookup used for
// reconciliation. Unlinked payments are skipped. When several payments
// reference the same order, the last one in input order wins.
func paymentIndexByOrder(payments []domain.Payment) map[string]domain.Payment {
	index := make(map[string]domain.Payment, len(payments))
	for _, p := range payments {
		if p.OrderDbID == "" {
			continue
		}
		index[p.OrderDbID] = p
	}
	return index
}

// countReconciliationGaps checks every online-paid order against the payment
// ledger. An order gaps when it has no linked payment, the payment is
// unverified, or the payment amount differs from the order total by more
// than centTolerance. Orders paid by any other method are never checked.
func countReconciliationGaps(orders []domain.Order, payments []domain.Payment) int {
	index := paymentIndexByOrder(payments)

	gaps := 0
	for _, o := range orders {
		if o.PaymentMethod != domain.MethodOnline {
			continue
		}
		p, ok := index[o.ID]
		if !ok || !p.Verified {
			gaps++
			continue
		}
		if p.Amount.Sub(o.Bills.TotalWithTax).Abs().GreaterThan(centTolerance) {
			gaps++
		}
	}
	return gaps
}
