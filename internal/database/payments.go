package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (booking_id, transaction_id, amount, currency, method, status, paid_at, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	var paidAt any
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}

	result, err := db.ExecContext(ctx, query,
		p.BookingID, p.TransactionID, p.Amount, p.Currency, p.Method, p.Status, paidAt, now)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

func (db *DB) GetBookingPayments(ctx context.Context, bookingID int64) ([]*models.Payment, error) {
	query := `SELECT id, booking_id, transaction_id, amount, currency, method, status, paid_at, created_at
              FROM payments WHERE booking_id = ? ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var (
			p      models.Payment
			paidAt sql.NullTime
		)
		err := rows.Scan(&p.ID, &p.BookingID, &p.TransactionID, &p.Amount,
			&p.Currency, &p.Method, &p.Status, &paidAt, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if paidAt.Valid {
			t := paidAt.Time
			p.PaidAt = &t
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
