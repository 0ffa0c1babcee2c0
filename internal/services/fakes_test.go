package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/notify"
)

// fakeRepo keeps bookings in memory and enforces the same unique constraints
// as the schema: one confirmed booking per route/date/seat, unique reference
// and unique idempotency key.
type fakeRepo struct {
	mu           sync.Mutex
	routes       map[domain.ID]models.Route
	bookings     []models.Booking
	payments     []models.Payment
	nextID       int64
	createCalls  int
	beforeInsert func(r *fakeRepo, b models.Booking)
	createErr    error
	// failNext is returned by the next CreateBooking calls, one per call.
	failNext []error
}

func newFakeRepo(routes ...models.Route) *fakeRepo {
	r := &fakeRepo{routes: map[domain.ID]models.Route{}}
	for _, route := range routes {
		r.routes[route.ID] = route
	}
	return r
}

func (r *fakeRepo) GetRoute(_ context.Context, id domain.ID) (models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return models.Route{}, domain.NotFoundError{Resource: "route"}
	}
	return route, nil
}

func (r *fakeRepo) ListRoutes(_ context.Context, vendorID domain.ID) ([]models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Route{}
	for _, route := range r.routes {
		if vendorID == 0 || route.VendorID == vendorID {
			out = append(out, route)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) ConfirmedOccupants(_ context.Context, routeID domain.ID, travelDate string) ([]models.SeatOccupant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []models.Booking
	for _, b := range r.bookings {
		if b.RouteID == routeID && b.IsConfirmed() && (travelDate == "" || b.TravelDate == travelDate) {
			rows = append(rows, b)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SeatNumber != rows[j].SeatNumber {
			return rows[i].SeatNumber < rows[j].SeatNumber
		}
		return rows[i].ID > rows[j].ID
	})
	out := make([]models.SeatOccupant, 0, len(rows))
	for _, b := range rows {
		out = append(out, models.SeatOccupant{SeatNumber: b.SeatNumber, PassengerName: b.PassengerName})
	}
	return out, nil
}

func (r *fakeRepo) CreateBooking(_ context.Context, b models.Booking, p models.Payment) (models.Booking, models.Payment, error) {
	r.mu.Lock()
	hook := r.beforeInsert
	r.beforeInsert = nil
	r.mu.Unlock()
	if hook != nil {
		hook(r, b)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return models.Booking{}, models.Payment{}, r.createErr
	}
	if len(r.failNext) > 0 {
		err := r.failNext[0]
		r.failNext = r.failNext[1:]
		return models.Booking{}, models.Payment{}, err
	}
	for _, existing := range r.bookings {
		if b.IdempotencyKey != "" && existing.IdempotencyKey == b.IdempotencyKey {
			return models.Booking{}, models.Payment{}, domain.ErrIdempotencyKeyTaken
		}
		if existing.BookingReference == b.BookingReference {
			return models.Booking{}, models.Payment{}, fmt.Errorf("%w: %s", domain.ErrReferenceTaken, b.BookingReference)
		}
		if existing.IsConfirmed() && existing.RouteID == b.RouteID &&
			existing.TravelDate == b.TravelDate && existing.SeatNumber == b.SeatNumber {
			return models.Booking{}, models.Payment{}, domain.SeatUnavailableError{Seat: b.SeatNumber, TravelDate: b.TravelDate}
		}
	}
	r.nextID++
	b.ID = domain.ID(r.nextID)
	p.ID = b.ID
	p.BookingID = b.ID
	r.bookings = append(r.bookings, b)
	r.payments = append(r.payments, p)
	return b, p, nil
}

// seed stores a confirmed booking directly, bypassing the ledger.
func (r *fakeRepo) seed(routeID domain.ID, date string, seat int, name string) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b := models.Booking{
		ID:               domain.ID(r.nextID),
		RouteID:          routeID,
		TravelDate:       date,
		SeatNumber:       seat,
		PassengerName:    name,
		Status:           models.BookingConfirmed,
		BookingReference: fmt.Sprintf("SEED%04d", r.nextID),
		Source:           models.SourceOnline,
	}
	r.bookings = append(r.bookings, b)
	return b
}

func (r *fakeRepo) find(match func(models.Booking) bool) (models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if match(b) {
			return b, nil
		}
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (r *fakeRepo) GetBookingByID(_ context.Context, id domain.ID) (models.Booking, error) {
	return r.find(func(b models.Booking) bool { return b.ID == id })
}

func (r *fakeRepo) GetBookingByReference(_ context.Context, reference string) (models.Booking, error) {
	return r.find(func(b models.Booking) bool { return b.BookingReference == reference })
}

func (r *fakeRepo) GetBookingByIdempotencyKey(_ context.Context, key string) (models.Booking, error) {
	return r.find(func(b models.Booking) bool { return b.IdempotencyKey != "" && b.IdempotencyKey == key })
}

func (r *fakeRepo) CancelBooking(_ context.Context, id domain.ID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id && r.bookings[i].IsConfirmed() {
			r.bookings[i].Status = models.BookingCancelled
			t := at
			r.bookings[i].CancelledAt = &t
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListBookings(_ context.Context, routeID domain.ID, travelDate string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Booking{}
	for _, b := range r.bookings {
		if b.RouteID == routeID && (travelDate == "" || b.TravelDate == travelDate) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetPayment(_ context.Context, bookingID domain.ID) (models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			return p, nil
		}
	}
	return models.Payment{}, domain.NotFoundError{Resource: "payment"}
}

func (r *fakeRepo) confirmedCount(routeID domain.ID, date string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bookings {
		if b.RouteID == routeID && b.TravelDate == date && b.IsConfirmed() {
			n++
		}
	}
	return n
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (s *recordingSink) Notify(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// scriptedRefs hands out the listed codes, then unique generated ones.
type scriptedRefs struct {
	mu    sync.Mutex
	codes []string
	n     int
}

func (g *scriptedRefs) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) > 0 {
		code := g.codes[0]
		g.codes = g.codes[1:]
		return code, nil
	}
	g.n++
	return fmt.Sprintf("TKTGEN%03d", g.n), nil
}
