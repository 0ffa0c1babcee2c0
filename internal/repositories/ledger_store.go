package repositories

import (
	"context"
	"database/sql"
	"time"

	"busticket/internal/db"
	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

// LedgerStore groups the repositories the booking ledger reads and writes.
type LedgerStore struct {
	Routes   RouteRepository
	Bookings BookingRepository
	Payments PaymentRepository
}

func NewLedgerStore(sqlDB *sql.DB, dialect db.Dialect) *LedgerStore {
	return &LedgerStore{
		Routes:   RouteRepository{DB: sqlDB, Dialect: dialect},
		Bookings: BookingRepository{DB: sqlDB, Dialect: dialect},
		Payments: PaymentRepository{DB: sqlDB, Dialect: dialect},
	}
}

func (s *LedgerStore) GetRoute(ctx context.Context, id domain.ID) (models.Route, error) {
	return s.Routes.GetByID(ctx, id)
}

func (s *LedgerStore) ListRoutes(ctx context.Context, vendorID domain.ID) ([]models.Route, error) {
	return s.Routes.List(ctx, vendorID)
}

func (s *LedgerStore) ConfirmedOccupants(ctx context.Context, routeID domain.ID, travelDate string) ([]models.SeatOccupant, error) {
	return s.Bookings.ConfirmedOccupants(ctx, routeID, travelDate)
}

func (s *LedgerStore) CreateBooking(ctx context.Context, b models.Booking, p models.Payment) (models.Booking, models.Payment, error) {
	return s.Bookings.Create(ctx, b, p)
}

func (s *LedgerStore) GetBookingByID(ctx context.Context, id domain.ID) (models.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

func (s *LedgerStore) GetBookingByReference(ctx context.Context, reference string) (models.Booking, error) {
	return s.Bookings.GetByReference(ctx, reference)
}

func (s *LedgerStore) GetBookingByIdempotencyKey(ctx context.Context, key string) (models.Booking, error) {
	return s.Bookings.GetByIdempotencyKey(ctx, key)
}

func (s *LedgerStore) CancelBooking(ctx context.Context, id domain.ID, at time.Time) (bool, error) {
	return s.Bookings.Cancel(ctx, id, at)
}

func (s *LedgerStore) ListBookings(ctx context.Context, routeID domain.ID, travelDate string) ([]models.Booking, error) {
	return s.Bookings.ListByRoute(ctx, routeID, travelDate)
}

func (s *LedgerStore) GetPayment(ctx context.Context, bookingID domain.ID) (models.Payment, error) {
	return s.Payments.GetByBookingID(ctx, bookingID)
}
