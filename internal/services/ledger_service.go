package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/notify"
	"busticket/internal/utils"
)

const (
	defaultReferenceAttempts = 5
	defaultNotifyTimeout     = 5 * time.Second
)

// LedgerRepository is the persistence the ledger needs. CreateBooking must
// fail with SeatUnavailableError when a confirmed booking holds the seat,
// wrap ErrReferenceTaken on a reference collision and return
// ErrIdempotencyKeyTaken when the key was already stored.
type LedgerRepository interface {
	GetRoute(ctx context.Context, id domain.ID) (models.Route, error)
	ListRoutes(ctx context.Context, vendorID domain.ID) ([]models.Route, error)
	ConfirmedOccupants(ctx context.Context, routeID domain.ID, travelDate string) ([]models.SeatOccupant, error)
	CreateBooking(ctx context.Context, b models.Booking, p models.Payment) (models.Booking, models.Payment, error)
	GetBookingByID(ctx context.Context, id domain.ID) (models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (models.Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, key string) (models.Booking, error)
	CancelBooking(ctx context.Context, id domain.ID, at time.Time) (bool, error)
	ListBookings(ctx context.Context, routeID domain.ID, travelDate string) ([]models.Booking, error)
	GetPayment(ctx context.Context, bookingID domain.ID) (models.Payment, error)
}

type LedgerOptions struct {
	// StoreTimeout bounds each ledger operation; zero leaves the caller's deadline alone.
	StoreTimeout         time.Duration
	EnforceOperatingDays bool
	ReferenceAttempts    int
	NotifyTimeout        time.Duration
}

// LedgerService owns seat reservation for a route and travel date.
type LedgerService struct {
	Repo       LedgerRepository
	Sink       notify.Sink
	References ReferenceGenerator
	Now        func() time.Time
	Options    LedgerOptions
}

func NewLedgerService(repo LedgerRepository, sink notify.Sink, refs ReferenceGenerator, opts LedgerOptions) *LedgerService {
	return &LedgerService{
		Repo:       repo,
		Sink:       sink,
		References: refs,
		Now:        utils.NowUTC,
		Options:    opts,
	}
}

type ReserveInput struct {
	RouteID        domain.ID
	TravelDate     string
	SeatNumber     int
	PassengerName  string
	Phone          string
	Email          string
	Amount         int64
	Source         models.BookingSource
	PaymentMethod  string
	IdempotencyKey string
}

// ReserveResult carries the booking; Created is false when an earlier request
// with the same idempotency key already made it.
type ReserveResult struct {
	Booking models.Booking
	Payment models.Payment
	Created bool
}

type CancelResult struct {
	Booking models.Booking
	Changed bool
}

func (s *LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s *LedgerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Options.StoreTimeout > 0 {
		return context.WithTimeout(ctx, s.Options.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

// Routes lists the catalog; vendorID 0 means every vendor.
func (s *LedgerService) Routes(ctx context.Context, vendorID domain.ID) ([]models.Route, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Repo.ListRoutes(ctx, vendorID)
}

func (s *LedgerService) Route(ctx context.Context, id domain.ID) (models.Route, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Repo.GetRoute(ctx, id)
}

// SeatMap computes seat states for 1..capacity. With an empty travelDate it
// aggregates confirmed bookings across every date and shows the most recent
// passenger per seat.
func (s *LedgerService) SeatMap(ctx context.Context, routeID domain.ID, travelDate string) (models.SeatMap, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	route, err := s.Repo.GetRoute(ctx, routeID)
	if err != nil {
		return models.SeatMap{}, err
	}
	date := strings.TrimSpace(travelDate)
	if date != "" {
		if date, err = normalizeTravelDate(date); err != nil {
			return models.SeatMap{}, err
		}
	}

	occupants, err := s.Repo.ConfirmedOccupants(ctx, route.ID, date)
	if err != nil {
		return models.SeatMap{}, err
	}
	return buildSeatMap(route, date, occupants), nil
}

func buildSeatMap(route models.Route, travelDate string, occupants []models.SeatOccupant) models.SeatMap {
	holder := make(map[int]string, len(occupants))
	for _, o := range occupants {
		if o.SeatNumber < 1 || o.SeatNumber > route.Capacity {
			continue
		}
		if _, seen := holder[o.SeatNumber]; !seen {
			holder[o.SeatNumber] = o.PassengerName
		}
	}

	out := models.SeatMap{
		RouteID:    route.ID,
		TravelDate: travelDate,
		Capacity:   route.Capacity,
		Seats:      make([]models.Seat, 0, route.Capacity),
	}
	for n := 1; n <= route.Capacity; n++ {
		seat := models.Seat{Number: n, Status: models.SeatAvailable}
		if name, ok := holder[n]; ok {
			seat.Status = models.SeatBooked
			seat.PassengerName = name
		} else {
			out.Available++
		}
		out.Seats = append(out.Seats, seat)
	}
	return out
}

// ReserveSeat books the requested seat or fails with SeatUnavailableError.
func (s *LedgerService) ReserveSeat(ctx context.Context, in ReserveInput) (ReserveResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if res, ok, err := s.replay(ctx, in); ok || err != nil {
		return res, err
	}

	route, b, err := s.prepare(ctx, in, true)
	if err != nil {
		return ReserveResult{}, err
	}
	b.SeatNumber = in.SeatNumber

	res, err := s.insert(ctx, in, b)
	if err != nil {
		s.logReserveFailure(ctx, "reserve_seat", b, err)
		return ReserveResult{}, err
	}
	s.afterReserve(ctx, route, res)
	return res, nil
}

// QuickBook books the lowest-numbered free seat. Losing a race for that seat
// rescans and tries the next one, at most capacity times.
func (s *LedgerService) QuickBook(ctx context.Context, in ReserveInput) (ReserveResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if res, ok, err := s.replay(ctx, in); ok || err != nil {
		return res, err
	}

	in.SeatNumber = 0
	route, b, err := s.prepare(ctx, in, false)
	if err != nil {
		return ReserveResult{}, err
	}

	lost := map[int]bool{}
	var conflict error
	for attempt := 0; attempt < route.Capacity; attempt++ {
		occupants, err := s.Repo.ConfirmedOccupants(ctx, route.ID, b.TravelDate)
		if err != nil {
			return ReserveResult{}, err
		}
		seat := lowestFreeSeat(route.Capacity, occupants, lost)
		if seat == 0 {
			break
		}
		b.SeatNumber = seat

		res, err := s.insert(ctx, in, b)
		if domain.IsSeatUnavailable(err) {
			lost[seat] = true
			utils.LogEvent(utils.RequestIDFrom(ctx), "LEDGER", "quick_book_retry",
				fmt.Sprintf("route_id=%d travel_date=%s seat=%d lost race", route.ID, b.TravelDate, seat))
			continue
		}
		if errors.Is(err, domain.ErrWriteConflict) {
			// The database picked this attempt as the victim; the seat may
			// still be free, so rescan without ruling it out.
			conflict = err
			utils.LogEvent(utils.RequestIDFrom(ctx), "LEDGER", "quick_book_retry",
				fmt.Sprintf("route_id=%d travel_date=%s seat=%d write conflict", route.ID, b.TravelDate, seat))
			continue
		}
		if err != nil {
			s.logReserveFailure(ctx, "quick_book", b, err)
			return ReserveResult{}, err
		}
		s.afterReserve(ctx, route, res)
		return res, nil
	}
	if conflict != nil {
		s.logReserveFailure(ctx, "quick_book", b, conflict)
		return ReserveResult{}, conflict
	}
	return ReserveResult{}, domain.SeatsExhaustedError{RouteID: route.ID, TravelDate: b.TravelDate}
}

func lowestFreeSeat(capacity int, occupants []models.SeatOccupant, skip map[int]bool) int {
	taken := make(map[int]bool, len(occupants)+len(skip))
	for _, o := range occupants {
		taken[o.SeatNumber] = true
	}
	for n := range skip {
		taken[n] = true
	}
	for n := 1; n <= capacity; n++ {
		if !taken[n] {
			return n
		}
	}
	return 0
}

// prepare runs every precondition before any write and builds the booking.
// Order: route exists and is active, seat in range, travel date present.
func (s *LedgerService) prepare(ctx context.Context, in ReserveInput, requireSeat bool) (models.Route, models.Booking, error) {
	route, err := s.Repo.GetRoute(ctx, in.RouteID)
	if err != nil {
		return models.Route{}, models.Booking{}, err
	}
	if !route.IsActive() {
		return models.Route{}, models.Booking{}, domain.ValidationError{Field: "routeId", Msg: "route is not active"}
	}
	if requireSeat {
		if err := checkSeat(route, in.SeatNumber); err != nil {
			return models.Route{}, models.Booking{}, err
		}
	}
	if strings.TrimSpace(in.TravelDate) == "" {
		return models.Route{}, models.Booking{}, domain.ValidationError{Field: "travelDate", Msg: "travel date is required"}
	}
	travelDate, err := normalizeTravelDate(in.TravelDate)
	if err != nil {
		return models.Route{}, models.Booking{}, err
	}
	if s.Options.EnforceOperatingDays {
		day, _ := utils.ParseDate(travelDate)
		if !route.OperatesOn(day) {
			return models.Route{}, models.Booking{}, domain.ValidationError{
				Field: "travelDate",
				Msg:   fmt.Sprintf("route does not operate on %s", day.Weekday()),
			}
		}
	}
	name := utils.NormalizeSpace(in.PassengerName)
	if name == "" {
		return models.Route{}, models.Booking{}, domain.ValidationError{Field: "passengerName", Msg: "passenger name is required"}
	}
	if in.Amount < 0 {
		return models.Route{}, models.Booking{}, domain.ValidationError{Field: "amount", Msg: "amount must not be negative"}
	}

	source := models.BookingSource(utils.ResolveSource(string(in.Source), string(models.SourceOnline)))
	return route, models.Booking{
		RouteID:        route.ID,
		TravelDate:     travelDate,
		PassengerName:  name,
		Phone:          utils.NormalizePhone(in.Phone),
		Email:          utils.NormalizeEmail(in.Email),
		Amount:         utils.ResolveAmount(in.Amount, route.Fare),
		Status:         models.BookingConfirmed,
		Source:         source,
		IdempotencyKey: strings.TrimSpace(in.IdempotencyKey),
	}, nil
}

func checkSeat(route models.Route, seat int) error {
	if seat < 1 || seat > route.Capacity {
		return domain.ValidationError{
			Field: "seatNumber",
			Msg:   fmt.Sprintf("seat must be between 1 and %d", route.Capacity),
		}
	}
	return nil
}

func normalizeTravelDate(raw string) (string, error) {
	t, err := utils.ParseDate(raw)
	if err != nil {
		return "", domain.ValidationError{Field: "travelDate", Msg: "travel date must be YYYY-MM-DD", Err: err}
	}
	return utils.FormatDate(t), nil
}

// insert performs the conditional insert, regenerating the reference code
// while it collides.
func (s *LedgerService) insert(ctx context.Context, in ReserveInput, b models.Booking) (ReserveResult, error) {
	attempts := s.Options.ReferenceAttempts
	if attempts <= 0 {
		attempts = defaultReferenceAttempts
	}

	for i := 0; i < attempts; i++ {
		ref, err := s.References.Generate()
		if err != nil {
			return ReserveResult{}, domain.InternalError{Msg: "generate booking reference", Err: err}
		}
		now := s.now()
		b.BookingReference = ref
		b.CreatedAt = now
		p := models.Payment{
			Amount:    b.Amount,
			Method:    utils.ResolvePaymentMethod(in.PaymentMethod, string(b.Source)),
			Status:    models.PaymentReceived,
			CreatedAt: now,
		}

		created, payment, err := s.Repo.CreateBooking(ctx, b, p)
		switch {
		case err == nil:
			return ReserveResult{Booking: created, Payment: payment, Created: true}, nil
		case errors.Is(err, domain.ErrReferenceTaken):
			utils.LogEvent(utils.RequestIDFrom(ctx), "LEDGER", "reference_collision", "regenerating booking reference")
			continue
		case errors.Is(err, domain.ErrIdempotencyKeyTaken):
			res, ok, rerr := s.replay(ctx, in)
			if rerr != nil {
				return ReserveResult{}, rerr
			}
			if !ok {
				return ReserveResult{}, domain.ConflictError{Resource: "idempotency key", Msg: "request with this key is still in flight"}
			}
			return res, nil
		default:
			return ReserveResult{}, err
		}
	}
	return ReserveResult{}, domain.InternalError{Msg: "could not allocate a unique booking reference"}
}

// replay returns the booking stored under in.IdempotencyKey. ok is false when
// no key was sent or nothing is stored under it.
func (s *LedgerService) replay(ctx context.Context, in ReserveInput) (ReserveResult, bool, error) {
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		return ReserveResult{}, false, nil
	}
	existing, err := s.Repo.GetBookingByIdempotencyKey(ctx, key)
	if domain.IsNotFound(err) {
		return ReserveResult{}, false, nil
	}
	if err != nil {
		return ReserveResult{}, false, err
	}
	if !sameRequest(existing, in) {
		return ReserveResult{}, false, domain.ConflictError{
			Resource: "idempotency key",
			Msg:      "key was already used for a different booking",
		}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "LEDGER", "idempotent_replay",
		fmt.Sprintf("reference=%s", existing.BookingReference))
	res := ReserveResult{Booking: existing}
	if p, err := s.Repo.GetPayment(ctx, existing.ID); err == nil {
		res.Payment = p
	}
	return res, true, nil
}

func sameRequest(b models.Booking, in ReserveInput) bool {
	if b.RouteID != in.RouteID {
		return false
	}
	if date, err := normalizeTravelDate(in.TravelDate); err != nil || date != b.TravelDate {
		return false
	}
	if in.SeatNumber != 0 && in.SeatNumber != b.SeatNumber {
		return false
	}
	return strings.EqualFold(utils.NormalizeSpace(in.PassengerName), b.PassengerName)
}

func (s *LedgerService) afterReserve(ctx context.Context, route models.Route, res ReserveResult) {
	b := res.Booking
	utils.LogEvent(utils.RequestIDFrom(ctx), "LEDGER", "reserved",
		fmt.Sprintf("reference=%s route_id=%d travel_date=%s seat=%d source=%s", b.BookingReference, b.RouteID, b.TravelDate, b.SeatNumber, b.Source))
	s.notifyReserved(ctx, route, b)
}

func (s *LedgerService) logReserveFailure(ctx context.Context, action string, b models.Booking, err error) {
	utils.LogError(utils.RequestIDFrom(ctx), "LEDGER", action,
		fmt.Sprintf("route_id=%d travel_date=%s seat=%d", b.RouteID, b.TravelDate, b.SeatNumber), err)
}

// notifyReserved sends booking_confirmed then payment_received. The booking
// is already committed, so the caller's cancellation does not apply and
// failures are only logged.
func (s *LedgerService) notifyReserved(parent context.Context, route models.Route, b models.Booking) {
	if s.Sink == nil {
		return
	}
	timeout := s.Options.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	now := s.now()
	recipient := utils.ResolveRecipient(b.Email, b.Phone, b.PassengerName)
	msgs := []notify.Message{
		{
			Kind:       models.NotifyBookingConfirmed,
			Recipient:  recipient,
			Route:      route.Label(),
			Reference:  b.BookingReference,
			TravelDate: b.TravelDate,
			Time:       route.DepartureTime,
			CreatedAt:  now,
		},
		{
			Kind:       models.NotifyPaymentReceived,
			Recipient:  recipient,
			Reference:  b.BookingReference,
			TravelDate: b.TravelDate,
			Time:       route.DepartureTime,
			CreatedAt:  now,
		},
	}
	for _, msg := range msgs {
		if err := s.Sink.Notify(ctx, msg); err != nil {
			utils.LogError(utils.RequestIDFrom(ctx), "LEDGER", "notify_failed",
				fmt.Sprintf("kind=%s reference=%s", msg.Kind, b.BookingReference), err)
		}
	}
}

// Cancel flips a confirmed booking to cancelled. idOrReference is a numeric
// booking id or a reference code. Cancelling twice is a no-op.
func (s *LedgerService) Cancel(ctx context.Context, idOrReference string) (CancelResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.findBooking(ctx, idOrReference)
	if err != nil {
		return CancelResult{}, err
	}
	if !b.IsConfirmed() {
		return CancelResult{Booking: b}, nil
	}

	changed, err := s.Repo.CancelBooking(ctx, b.ID, s.now())
	if err != nil {
		return CancelResult{}, err
	}
	fresh, err := s.Repo.GetBookingByID(ctx, b.ID)
	if err != nil {
		return CancelResult{}, err
	}
	if changed {
		utils.LogEvent(utils.RequestIDFrom(ctx), "LEDGER", "cancelled",
			fmt.Sprintf("reference=%s route_id=%d travel_date=%s seat=%d", fresh.BookingReference, fresh.RouteID, fresh.TravelDate, fresh.SeatNumber))
	}
	return CancelResult{Booking: fresh, Changed: changed}, nil
}

func (s *LedgerService) findBooking(ctx context.Context, idOrReference string) (models.Booking, error) {
	key := strings.TrimSpace(idOrReference)
	if key == "" {
		return models.Booking{}, domain.ValidationError{Field: "booking", Msg: "booking id or reference is required"}
	}
	if utils.IsDigits(key) {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return models.Booking{}, domain.ValidationError{Field: "booking", Msg: "invalid booking id"}
		}
		return s.Repo.GetBookingByID(ctx, domain.ID(id))
	}
	return s.Repo.GetBookingByReference(ctx, strings.ToUpper(key))
}

// Find resolves a booking by numeric id or reference code, as Cancel does.
func (s *LedgerService) Find(ctx context.Context, idOrReference string) (models.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.findBooking(ctx, idOrReference)
}

// Lookup finds a booking by its reference code.
func (s *LedgerService) Lookup(ctx context.Context, reference string) (models.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ref := strings.ToUpper(strings.TrimSpace(reference))
	if ref == "" {
		return models.Booking{}, domain.ValidationError{Field: "reference", Msg: "reference is required"}
	}
	return s.Repo.GetBookingByReference(ctx, ref)
}

// ListBookings is the vendor manifest: every booking of a route, optionally
// for one travel date.
func (s *LedgerService) ListBookings(ctx context.Context, routeID domain.ID, travelDate string) ([]models.Booking, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	route, err := s.Repo.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	date := strings.TrimSpace(travelDate)
	if date != "" {
		if date, err = normalizeTravelDate(date); err != nil {
			return nil, err
		}
	}
	return s.Repo.ListBookings(ctx, route.ID, date)
}
