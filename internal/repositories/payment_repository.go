package repositories

import (
	"context"
	"database/sql"
	"errors"

	"busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

type PaymentRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r PaymentRepository) insert(ctx context.Context, q db.Querier, p models.Payment) (int64, error) {
	return r.Dialect.InsertID(ctx, q, `
		INSERT INTO payments (booking_id, amount, method, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		int64(p.BookingID), p.Amount, p.Method, p.Status, p.CreatedAt,
	)
}

// GetByBookingID returns the payment recorded with the booking.
func (r PaymentRepository) GetByBookingID(ctx context.Context, bookingID domain.ID) (models.Payment, error) {
	var (
		p      models.Payment
		id, bk int64
	)
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`
		SELECT id, booking_id, amount, method, status, created_at
		FROM payments
		WHERE booking_id=?
		ORDER BY id ASC
		LIMIT 1`), int64(bookingID),
	).Scan(&id, &bk, &p.Amount, &p.Method, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if err != nil {
		return models.Payment{}, domain.StoreError("get payment", err)
	}
	p.ID = domain.ID(id)
	p.BookingID = domain.ID(bk)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
