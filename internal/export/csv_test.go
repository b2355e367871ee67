package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderdeck/settlement/internal/domain"
)

func sampleBatch() domain.SettlementBatch {
	return domain.SettlementBatch{
		ID:         "b-1",
		LocationID: "centro",
		StartAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Currency:   "EUR",
		Status:     domain.StatusGenerated,
		Metrics: domain.SettlementMetrics{
			OrderCount:             2,
			PaymentCount:           1,
			GrossSales:             decimal.RequireFromString("300"),
			DiscountTotal:          decimal.RequireFromString("10"),
			TaxTotal:               decimal.RequireFromString("15.23"),
			NetSales:               decimal.RequireFromString("100"),
			CashSales:              decimal.RequireFromString("94.73"),
			OnlineSales:            decimal.RequireFromString("210.5"),
			RefundTotal:            decimal.RequireFromString("10"),
			ReconciliationGapCount: 1,
		},
	}
}

func TestToExportRowsFieldOrder(t *testing.T) {
	wantFields := []string{
		"settlementId", "locationId", "startAt", "endAt", "currency", "status",
		"orderCount", "paymentCount", "grossSales", "discountTotal", "taxTotal",
		"netSales", "cashSales", "onlineSales", "refundTotal", "reconciliationGapCount",
	}

	rows := ToExportRows(sampleBatch())
	if len(rows) != len(wantFields) {
		t.Fatalf("row count: got %d, want %d", len(rows), len(wantFields))
	}
	for i, f := range wantFields {
		if rows[i].Field != f {
			t.Fatalf("row %d: got field %q, want %q", i, rows[i].Field, f)
		}
	}
}

func TestToExportRowsValues(t *testing.T) {
	rows := ToExportRows(sampleBatch())

	byField := make(map[string]string, len(rows))
	for _, r := range rows {
		byField[r.Field] = r.Value
	}

	want := map[string]string{
		"settlementId":           "b-1",
		"startAt":                "2024-03-01T00:00:00Z",
		"endAt":                  "2024-03-02T00:00:00Z",
		"status":                 "GENERATED",
		"netSales":               "100",
		"onlineSales":            "210.5",
		"cashSales":              "94.73",
		"reconciliationGapCount": "1",
	}
	for f, w := range want {
		if byField[f] != w {
			t.Fatalf("%s: got %q, want %q", f, byField[f], w)
		}
	}
}

func TestToExportRowsMissingOptionalFields(t *testing.T) {
	rows := ToExportRows(domain.SettlementBatch{})

	byField := make(map[string]string, len(rows))
	for _, r := range rows {
		byField[r.Field] = r.Value
	}

	for _, f := range []string{"settlementId", "locationId", "startAt", "endAt", "currency"} {
		if byField[f] != "" {
			t.Fatalf("%s: got %q, want empty", f, byField[f])
		}
	}
	if byField["netSales"] != "0" || byField["orderCount"] != "0" {
		t.Fatalf("zero metrics should render as 0: %v", byField)
	}
}

func TestWriteCSVQuoting(t *testing.T) {
	csv := WriteCSV([]Row{
		{"netSales", "100"},
		{"note", `said "ok"`},
	})

	want := "\"netSales\",\"100\"\n\"note\",\"said \"\"ok\"\"\""
	if csv != want {
		t.Fatalf("got:\n%s\nwant:\n%s", csv, want)
	}
}

func TestWriteCSVFullBatch(t *testing.T) {
	csv := WriteCSV(ToExportRows(sampleBatch()))

	lines := strings.Split(csv, "\n")
	if len(lines) != 16 {
		t.Fatalf("line count: got %d, want 16", len(lines))
	}
	if lines[0] != `"settlementId","b-1"` {
		t.Fatalf("first line: %q", lines[0])
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Fatalf("line %d not fully quoted: %q", i, line)
		}
	}
}
