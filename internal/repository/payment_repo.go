package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/orderdeck/settlement/internal/domain"
	"github.com/orderdeck/settlement/internal/money"
)

type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM payments").Scan(&count)
	return count, err
}

// ListForWindow returns all payments created in the half-open window
// [from, to). Payments carry no location and are matched globally against a
// location-scoped order set; in multi-location deployments this can overcount
// refunds and gaps for a single location.
func (r *PaymentRepo) ListForWindow(from, to time.Time) ([]domain.Payment, error) {
	rows, err := r.db.Query(
		`SELECT id, order_db_id, amount, method, verified, refund_amount_total, created_at
		 FROM payments
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepo) BulkInsert(payments []domain.Payment) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO payments
		(id, order_db_id, amount, method, verified, refund_amount_total, created_at)
		VALUES (?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range payments {
		p := &payments[i]
		var orderID any
		if p.OrderDbID != "" {
			orderID = p.OrderDbID
		}
		res, err := stmt.Exec(
			p.ID, orderID, p.Amount.String(), p.Method, p.Verified,
			p.RefundAmountTotal.String(), p.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert payment %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func scanPayment(rows *sql.Rows) (*domain.Payment, error) {
	var p domain.Payment
	var amount, refund, createdStr string
	var orderIDNull, methodNull sql.NullString

	err := rows.Scan(&p.ID, &orderIDNull, &amount, &methodNull, &p.Verified, &refund, &createdStr)
	if err != nil {
		return nil, err
	}

	if orderIDNull.Valid {
		p.OrderDbID = orderIDNull.String
	}
	if methodNull.Valid {
		p.Method = methodNull.String
	}
	p.Amount = money.Parse(amount)
	p.RefundAmountTotal = money.Parse(refund)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)

	return &p, nil
}
