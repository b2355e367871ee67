// Package export renders settlement batches as flat field/value rows for
// downstream bookkeeping tools, plus the CSV serialization of those rows.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/orderdeck/settlement/internal/domain"
)

// Row is one exported field/value pair.
type Row struct {
	Field string
	Value string
}

// ToExportRows flattens a settlement batch into its export rows. The field
// set and order are frozen: batch identity first (settlementId, locationId,
// startAt, endAt, currency, status), then every metric in declaration order.
// Downstream consumers key on field names and positions, so changes here are
// breaking. Missing optional values render as empty string, never an error.
func ToExportRows(b domain.SettlementBatch) []Row {
	m := b.Metrics
	return []Row{
		{"settlementId", b.ID},
		{"locationId", b.LocationID},
		{"startAt", isoUTC(b.StartAt)},
		{"endAt", isoUTC(b.EndAt)},
		{"currency", b.Currency},
		{"status", string(b.Status)},
		{"orderCount", strconv.Itoa(m.OrderCount)},
		{"paymentCount", strconv.Itoa(m.PaymentCount)},
		{"grossSales", m.GrossSales.String()},
		{"discountTotal", m.DiscountTotal.String()},
		{"taxTotal", m.TaxTotal.String()},
		{"netSales", m.NetSales.String()},
		{"cashSales", m.CashSales.String()},
		{"onlineSales", m.OnlineSales.String()},
		{"refundTotal", m.RefundTotal.String()},
		{"reconciliationGapCount", strconv.Itoa(m.ReconciliationGapCount)},
	}
}

// WriteCSV serializes rows as one "field","value" record per line. Every
// value is double-quoted with inner quotes doubled, regardless of content;
// encoding/csv quotes only when necessary, which would change bytes already
// relied on by downstream imports, so the quoting is done by hand.
func WriteCSV(rows []Row) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(quote(row.Field))
		b.WriteByte(',')
		b.WriteString(quote(row.Value))
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isoUTC(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
