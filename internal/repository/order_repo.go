package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/orderdeck/settlement/internal/domain"
	"github.com/orderdeck/settlement/internal/money"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count)
	return count, err
}

// ListForWindow returns the location's orders created in the half-open
// window [from, to).
func (r *OrderRepo) ListForWindow(locationID string, from, to time.Time) ([]domain.Order, error) {
	rows, err := r.db.Query(
		`SELECT id, location_id, payment_method, bill_total, bill_tax,
		        bill_total_with_tax, bill_discount_total,
		        bill_subtotal_before_discount, created_at
		 FROM orders
		 WHERE location_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at`,
		locationID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepo) BulkInsert(orders []domain.Order) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO orders
		(id, location_id, payment_method, bill_total, bill_tax,
		 bill_total_with_tax, bill_discount_total, bill_subtotal_before_discount, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range orders {
		o := &orders[i]
		var subtotal any
		if o.Bills.SubtotalBeforeDiscount != nil {
			subtotal = o.Bills.SubtotalBeforeDiscount.String()
		}
		res, err := stmt.Exec(
			o.ID, o.LocationID, string(o.PaymentMethod),
			o.Bills.Total.String(), o.Bills.Tax.String(),
			o.Bills.TotalWithTax.String(), o.Bills.DiscountTotal.String(),
			subtotal, o.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert order %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func scanOrder(rows *sql.Rows) (*domain.Order, error) {
	var o domain.Order
	var method, total, tax, totalWithTax, discount, createdStr string
	var subtotalNull sql.NullString

	err := rows.Scan(
		&o.ID, &o.LocationID, &method, &total, &tax,
		&totalWithTax, &discount, &subtotalNull, &createdStr,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = domain.PaymentMethod(method)
	o.Bills.Total = money.Parse(total)
	o.Bills.Tax = money.Parse(tax)
	o.Bills.TotalWithTax = money.Parse(totalWithTax)
	o.Bills.DiscountTotal = money.Parse(discount)
	if subtotalNull.Valid {
		sub := money.Parse(subtotalNull.String)
		o.Bills.SubtotalBeforeDiscount = &sub
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)

	return &o, nil
}
