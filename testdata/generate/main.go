// Command generate produces deterministic seed data for the settlement
// engine: two weeks of orders across a handful of locations, and the payment
// ledger for the online-paid ones with a few planted reconciliation
// anomalies (unverified payments, drifted amounts, missing links) so a
// generated settlement has gaps to report.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdeck/settlement/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Date range: 2024-03-01 to 2024-03-14.
	startDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	dayRange := int(endDate.Sub(startDate).Hours() / 24)

	locations := []string{"centro", "norte", "puerto"}

	var orders []domain.Order
	var payments []domain.Payment

	for _, loc := range locations {
		for i := 0; i < 120; i++ {
			day := rng.Intn(dayRange)
			hour := 11 + rng.Intn(12) // service hours 11:00-23:00
			minute := rng.Intn(60)
			createdAt := startDate.AddDate(0, 0, day).Add(
				time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute,
			)

			o := makeOrder(rng, loc, createdAt)
			orders = append(orders, o)

			if o.PaymentMethod != domain.MethodOnline {
				continue
			}

			// Anomaly distribution for online orders: 4% no payment at
			// all, 5% unverified, 4% amount drifted past the one-cent
			// tolerance; the rest reconcile cleanly.
			roll := rng.Float64()
			if roll < 0.04 {
				continue
			}

			p := domain.Payment{
				ID:        uuid.NewString(),
				OrderDbID: o.ID,
				Amount:    o.Bills.TotalWithTax,
				Method:    "card",
				Verified:  true,
				CreatedAt: createdAt.Add(time.Duration(rng.Intn(90)+5) * time.Second),
			}
			switch {
			case roll < 0.09:
				p.Verified = false
			case roll < 0.13:
				drift := decimal.New(int64(rng.Intn(400)+2), -2) // 0.02 to 4.01
				p.Amount = p.Amount.Sub(drift)
			}

			// Roughly one online order in twelve has a partial refund.
			if rng.Float64() < 0.08 {
				p.RefundAmountTotal = p.Amount.Mul(decimal.New(25, -2)).Round(2)
			}

			payments = append(payments, p)
		}
	}

	// A few gateway records the POS never linked to an order.
	for i := 0; i < 4; i++ {
		payments = append(payments, domain.Payment{
			ID:        uuid.NewString(),
			Amount:    decimal.New(int64(rng.Intn(9000)+500), -2),
			Method:    "card",
			Verified:  true,
			CreatedAt: startDate.Add(time.Duration(rng.Intn(dayRange*24)) * time.Hour),
		})
	}

	writeJSONFile(filepath.Join(baseDir, "orders.json"), orders)
	fmt.Printf("Generated %d orders -> orders.json\n", len(orders))

	writeJSONFile(filepath.Join(baseDir, "payments.json"), payments)
	fmt.Printf("Generated %d payments -> payments.json\n", len(payments))

	fmt.Println("Test data generation complete.")
}

func makeOrder(rng *rand.Rand, loc string, createdAt time.Time) domain.Order {
	// Ticket between 8.00 and 88.00 before discount.
	subtotal := decimal.New(int64(rng.Intn(8000)+800), -2)

	// A third of orders carry a discount up to 20%.
	discount := decimal.Zero
	if rng.Float64() < 0.33 {
		pct := decimal.New(int64(rng.Intn(20)+1), -2)
		discount = subtotal.Mul(pct).Round(2)
	}

	discounted := subtotal.Sub(discount)
	tax := discounted.Mul(decimal.New(10, -2)).Round(2) // flat 10% VAT
	totalWithTax := discounted.Add(tax)

	method := domain.MethodCash
	if rng.Float64() < 0.55 {
		method = domain.MethodOnline
	}

	return domain.Order{
		ID:            uuid.NewString(),
		LocationID:    loc,
		PaymentMethod: method,
		Bills: domain.Bills{
			Total:                  discounted,
			Tax:                    tax,
			TotalWithTax:           totalWithTax,
			DiscountTotal:          discount,
			SubtotalBeforeDiscount: &subtotal,
		},
		CreatedAt: createdAt,
	}
}

func writeJSONFile(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	// Look for the testdata directory relative to common locations.
	candidates := []string{
		"testdata",
		filepath.Join("..", "..", "testdata"),
		".",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			if filepath.Base(mustAbs(c)) == "testdata" {
				return c
			}
		}
	}
	return "testdata"
}

func mustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
