package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/utils"
)

// Unique constraints the booking insert can trip over.
const (
	constraintActiveSeat  = "uq_bookings_active_seat"
	constraintReference   = "uq_bookings_reference"
	constraintIdempotency = "uq_bookings_idempotency"
)

type BookingRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const bookingColumns = `id, route_id, travel_date, seat_number, passenger_name, phone, email, amount,
	status, booking_reference, source, idempotency_key, created_at, cancelled_at`

// ConfirmedOccupants lists confirmed bookings reduced to seat and passenger.
// An empty travelDate spans every date; rows come newest first within a seat.
func (r BookingRepository) ConfirmedOccupants(ctx context.Context, routeID domain.ID, travelDate string) ([]models.SeatOccupant, error) {
	query := `SELECT seat_number, passenger_name FROM bookings WHERE route_id=? AND status=?`
	args := []any{int64(routeID), string(models.BookingConfirmed)}
	if travelDate != "" {
		query += ` AND travel_date=?`
		args = append(args, travelDate)
	}
	query += ` ORDER BY seat_number ASC, id DESC`

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, domain.StoreError("list occupied seats", err)
	}
	defer rows.Close()

	out := []models.SeatOccupant{}
	for rows.Next() {
		var o models.SeatOccupant
		if err := rows.Scan(&o.SeatNumber, &o.PassengerName); err != nil {
			return nil, domain.StoreError("list occupied seats", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list occupied seats", err)
	}
	return out, nil
}

// Create inserts the booking and its payment in one transaction. The insert is
// the seat claim: a confirmed booking already holding the seat trips
// uq_bookings_active_seat and nothing is written.
func (r BookingRepository) Create(ctx context.Context, b models.Booking, p models.Payment) (models.Booking, models.Payment, error) {
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		id, err := r.Dialect.InsertID(ctx, tx, `
			INSERT INTO bookings
				(route_id, travel_date, seat_number, passenger_name, phone, email, amount,
				 status, booking_reference, source, idempotency_key, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(b.RouteID), b.TravelDate, b.SeatNumber, b.PassengerName, b.Phone, b.Email, b.Amount,
			string(b.Status), b.BookingReference, string(b.Source), nullString(b.IdempotencyKey), b.CreatedAt,
		)
		if err != nil {
			return r.classifyInsert(b, err)
		}
		b.ID = domain.ID(id)

		p.BookingID = b.ID
		pid, err := PaymentRepository{DB: r.DB, Dialect: r.Dialect}.insert(ctx, tx, p)
		if err != nil {
			return err
		}
		p.ID = domain.ID(pid)
		return nil
	})
	if err != nil {
		if r.Dialect.WriteConflict(err) {
			err = fmt.Errorf("%w: %w", domain.ErrWriteConflict, err)
		}
		return models.Booking{}, models.Payment{}, domain.StoreError("create booking", err)
	}
	return b, p, nil
}

func (r BookingRepository) classifyInsert(b models.Booking, err error) error {
	constraint, ok := r.Dialect.UniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(constraint, constraintReference):
		return fmt.Errorf("%w: %s", domain.ErrReferenceTaken, b.BookingReference)
	case strings.Contains(constraint, constraintIdempotency):
		return domain.ErrIdempotencyKeyTaken
	default:
		return domain.SeatUnavailableError{Seat: b.SeatNumber, TravelDate: b.TravelDate, Err: err}
	}
}

func (r BookingRepository) GetByID(ctx context.Context, id domain.ID) (models.Booking, error) {
	return r.getOne(ctx, "get booking", `id=?`, int64(id))
}

func (r BookingRepository) GetByReference(ctx context.Context, reference string) (models.Booking, error) {
	return r.getOne(ctx, "get booking by reference", `booking_reference=?`, strings.ToUpper(strings.TrimSpace(reference)))
}

func (r BookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (models.Booking, error) {
	return r.getOne(ctx, "get booking by idempotency key", `idempotency_key=?`, key)
}

func (r BookingRepository) getOne(ctx context.Context, op, where string, arg any) (models.Booking, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(`SELECT `+bookingColumns+` FROM bookings WHERE `+where), arg)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, domain.StoreError(op, err)
	}
	return b, nil
}

// Cancel flips a confirmed booking to cancelled. It reports false when the
// row was not confirmed (already cancelled or missing).
func (r BookingRepository) Cancel(ctx context.Context, id domain.ID, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(
		`UPDATE bookings SET status=?, cancelled_at=? WHERE id=? AND status=?`),
		string(models.BookingCancelled), at, int64(id), string(models.BookingConfirmed),
	)
	if err != nil {
		return false, domain.StoreError("cancel booking", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.StoreError("cancel booking", err)
	}
	return n > 0, nil
}

// ListByRoute returns a route's bookings of every status, by seat then age.
func (r BookingRepository) ListByRoute(ctx context.Context, routeID domain.ID, travelDate string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE route_id=?`
	args := []any{int64(routeID)}
	if travelDate != "" {
		query += ` AND travel_date=?`
		args = append(args, travelDate)
	}
	query += ` ORDER BY travel_date ASC, seat_number ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, domain.StoreError("list bookings", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.StoreError("list bookings", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list bookings", err)
	}
	return out, nil
}

func scanBooking(s rowScanner) (models.Booking, error) {
	var (
		b           models.Booking
		id, routeID int64
		travelDate  time.Time
		status      string
		source      string
		idemKey     sql.NullString
		cancelledAt sql.NullTime
	)
	if err := s.Scan(&id, &routeID, &travelDate, &b.SeatNumber, &b.PassengerName, &b.Phone, &b.Email,
		&b.Amount, &status, &b.BookingReference, &source, &idemKey, &b.CreatedAt, &cancelledAt); err != nil {
		return models.Booking{}, err
	}
	b.ID = domain.ID(id)
	b.RouteID = domain.ID(routeID)
	b.TravelDate = utils.FormatDate(travelDate)
	b.Status = models.BookingStatus(status)
	b.Source = models.BookingSource(source)
	b.IdempotencyKey = idemKey.String
	b.CreatedAt = b.CreatedAt.UTC()
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		b.CancelledAt = &t
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
