package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/orderdeck/settlement/internal/api"
	"github.com/orderdeck/settlement/internal/config"
	"github.com/orderdeck/settlement/internal/domain"
	"github.com/orderdeck/settlement/internal/repository"
)

func main() {
	cfg := config.Load()

	log.Printf("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	orderRepo := repository.NewOrderRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	settRepo := repository.NewSettlementRepo(db)

	// Seed the source ledgers if the DB is empty.
	count, err := orderRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count orders: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding orders and payments from testdata...")
		if err := seedLedgers(orderRepo, paymentRepo); err != nil {
			log.Printf("WARNING: Failed to seed ledgers: %v", err)
		}
	} else {
		log.Printf("Database already has %d orders, skipping seed", count)
	}

	// Create router.
	router := api.NewRouter(orderRepo, paymentRepo, settRepo, cfg)

	log.Printf("Orderdeck POS Settlement Engine")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/settlements/generate")
	log.Printf("  GET    /api/v1/settlements")
	log.Printf("  GET    /api/v1/settlements/{id}")
	log.Printf("  GET    /api/v1/settlements/{id}/export")
	log.Printf("  GET    /api/v1/orders")
	log.Printf("  GET    /api/v1/payments")
	log.Printf("  GET    /healthz")
	log.Printf("  GET    /metrics")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedLedgers(orderRepo *repository.OrderRepo, paymentRepo *repository.PaymentRepo) error {
	var orders []domain.Order
	if err := loadSeedFile("orders.json", &orders); err != nil {
		return err
	}
	var payments []domain.Payment
	if err := loadSeedFile("payments.json", &payments); err != nil {
		return err
	}

	insertedOrders, err := orderRepo.BulkInsert(orders)
	if err != nil {
		return fmt.Errorf("bulk insert orders: %w", err)
	}
	insertedPayments, err := paymentRepo.BulkInsert(payments)
	if err != nil {
		return fmt.Errorf("bulk insert payments: %w", err)
	}

	log.Printf("Seeded %d orders and %d payments", insertedOrders, insertedPayments)
	return nil
}

func loadSeedFile(name string, v any) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		filepath.Join("testdata", name),
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", name),
			filepath.Join(dir, "..", "..", "testdata", name),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded %s from %s", name, path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find %s in any candidate path: %w", name, loadErr)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
