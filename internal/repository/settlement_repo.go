package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orderdeck/settlement/internal/domain"
	"github.com/orderdeck/settlement/internal/money"
)

// ErrNotFound is returned when a settlement batch does not exist.
var ErrNotFound = errors.New("settlement batch not found")

type SettlementRepo struct {
	db *sql.DB
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{db: db}
}

// Upsert stores the batch keyed by (location_id, start_at, end_at). When the
// window already has a batch, its metrics, currency, metadata and status are
// overwritten in place and the original id survives; regeneration never
// creates a duplicate. The stored batch is returned.
func (r *SettlementRepo) Upsert(b *domain.SettlementBatch) (*domain.SettlementBatch, error) {
	var metadata any
	if b.Metadata != nil {
		raw, err := json.Marshal(b.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = string(raw)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	m := b.Metrics

	_, err := r.db.Exec(
		`INSERT INTO settlement_batches
		(id, location_id, start_at, end_at, currency, status,
		 order_count, payment_count, gross_sales, discount_total, tax_total,
		 net_sales, cash_sales, online_sales, refund_total, reconciliation_gap_count,
		 metadata, exported_at, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,NULL,?,?)
		ON CONFLICT(location_id, start_at, end_at) DO UPDATE SET
			currency = excluded.currency,
			status = excluded.status,
			order_count = excluded.order_count,
			payment_count = excluded.payment_count,
			gross_sales = excluded.gross_sales,
			discount_total = excluded.discount_total,
			tax_total = excluded.tax_total,
			net_sales = excluded.net_sales,
			cash_sales = excluded.cash_sales,
			online_sales = excluded.online_sales,
			refund_total = excluded.refund_total,
			reconciliation_gap_count = excluded.reconciliation_gap_count,
			metadata = excluded.metadata,
			exported_at = NULL,
			updated_at = excluded.updated_at`,
		b.ID, b.LocationID,
		b.StartAt.UTC().Format(time.RFC3339), b.EndAt.UTC().Format(time.RFC3339),
		b.Currency, string(domain.StatusGenerated),
		m.OrderCount, m.PaymentCount,
		m.GrossSales.String(), m.DiscountTotal.String(), m.TaxTotal.String(),
		m.NetSales.String(), m.CashSales.String(), m.OnlineSales.String(),
		m.RefundTotal.String(), m.ReconciliationGapCount,
		metadata, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert batch: %w", err)
	}

	return r.getByWindow(b.LocationID, b.StartAt, b.EndAt)
}

func (r *SettlementRepo) getByWindow(locationID string, startAt, endAt time.Time) (*domain.SettlementBatch, error) {
	row := r.db.QueryRow(
		selectBatch+" WHERE location_id = ? AND start_at = ? AND end_at = ?",
		locationID, startAt.UTC().Format(time.RFC3339), endAt.UTC().Format(time.RFC3339),
	)
	return scanBatchRow(row)
}

func (r *SettlementRepo) GetByID(id string) (*domain.SettlementBatch, error) {
	row := r.db.QueryRow(selectBatch+" WHERE id = ?", id)
	return scanBatchRow(row)
}

// MarkExported flips the batch to EXPORTED and stamps exported_at. The
// transition is one-way; exporting an already exported batch just refreshes
// the timestamp.
func (r *SettlementRepo) MarkExported(id string, exportedAt time.Time) error {
	ts := exportedAt.UTC().Format(time.RFC3339)
	res, err := r.db.Exec(
		`UPDATE settlement_batches
		 SET status = ?, exported_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(domain.StatusExported), ts, ts, id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type SettlementFilter struct {
	LocationID string
	Status     string
	Limit      int
	Offset     int
}

// List returns batches newest-window-first, plus the unpaginated total.
func (r *SettlementRepo) List(f SettlementFilter) ([]domain.SettlementBatch, int, error) {
	where, args := buildBatchWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM settlement_batches"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := selectBatch + where + " ORDER BY start_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var batches []domain.SettlementBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, *b)
	}
	return batches, total, rows.Err()
}

func buildBatchWhere(f SettlementFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.LocationID != "" {
		clauses = append(clauses, "location_id = ?")
		args = append(args, f.LocationID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const selectBatch = `SELECT id, location_id, start_at, end_at, currency, status,
	order_count, payment_count, gross_sales, discount_total, tax_total,
	net_sales, cash_sales, online_sales, refund_total, reconciliation_gap_count,
	metadata, exported_at, created_at, updated_at
	FROM settlement_batches`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatchRow(row *sql.Row) (*domain.SettlementBatch, error) {
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func scanBatch(s rowScanner) (*domain.SettlementBatch, error) {
	var b domain.SettlementBatch
	var status, startStr, endStr, createdStr, updatedStr string
	var gross, discount, tax, net, cash, online, refund string
	var metadataNull, exportedNull sql.NullString

	err := s.Scan(
		&b.ID, &b.LocationID, &startStr, &endStr, &b.Currency, &status,
		&b.Metrics.OrderCount, &b.Metrics.PaymentCount,
		&gross, &discount, &tax, &net, &cash, &online, &refund,
		&b.Metrics.ReconciliationGapCount,
		&metadataNull, &exportedNull, &createdStr, &updatedStr,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BatchStatus(status)
	b.StartAt, _ = time.Parse(time.RFC3339, startStr)
	b.EndAt, _ = time.Parse(time.RFC3339, endStr)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)

	b.Metrics.GrossSales = money.Parse(gross)
	b.Metrics.DiscountTotal = money.Parse(discount)
	b.Metrics.TaxTotal = money.Parse(tax)
	b.Metrics.NetSales = money.Parse(net)
	b.Metrics.CashSales = money.Parse(cash)
	b.Metrics.OnlineSales = money.Parse(online)
	b.Metrics.RefundTotal = money.Parse(refund)

	if metadataNull.Valid && metadataNull.String != "" {
		if err := json.Unmarshal([]byte(metadataNull.String), &b.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if exportedNull.Valid {
		t, err := time.Parse(time.RFC3339, exportedNull.String)
		if err == nil {
			b.ExportedAt = &t
		}
	}

	return &b, nil
}
