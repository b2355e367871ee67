package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

// Monetary columns are TEXT holding canonical decimal strings; the engine
// never does arithmetic in SQL, so nothing is lost by avoiding REAL.
func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			location_id TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			bill_total TEXT NOT NULL,
			bill_tax TEXT NOT NULL,
			bill_total_with_tax TEXT NOT NULL,
			bill_discount_total TEXT NOT NULL,
			bill_subtotal_before_discount TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_location ON orders(location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			order_db_id TEXT,
			amount TEXT NOT NULL,
			method TEXT,
			verified INTEGER NOT NULL DEFAULT 0,
			refund_amount_total TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_order ON payments(order_db_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments(created_at)`,

		`CREATE TABLE IF NOT EXISTS settlement_batches (
			id TEXT PRIMARY KEY,
			location_id TEXT NOT NULL,
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			order_count INTEGER NOT NULL,
			payment_count INTEGER NOT NULL,
			gross_sales TEXT NOT NULL,
			discount_total TEXT NOT NULL,
			tax_total TEXT NOT NULL,
			net_sales TEXT NOT NULL,
			cash_sales TEXT NOT NULL,
			online_sales TEXT NOT NULL,
			refund_total TEXT NOT NULL,
			reconciliation_gap_count INTEGER NOT NULL,
			metadata TEXT,
			exported_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(location_id, start_at, end_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlement_batches_location ON settlement_batches(location_id)`,
		`CREATE INDEX IF NOT EXISTS idx_settlement_batches_status ON settlement_batches(status)`,
		`CREATE INDEX IF NOT EXISTS idx_settlement_batches_start_at ON settlement_batches(start_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
