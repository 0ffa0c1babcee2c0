package domain

import (
	"errors"
	"fmt"
)

// Sentinel conditions raised by the store and resolved inside the ledger;
// they never reach HTTP callers as-is.
var (
	ErrReferenceTaken      = errors.New("booking reference already taken")
	ErrIdempotencyKeyTaken = errors.New("idempotency key already used")
	// ErrWriteConflict marks a transaction the database aborted in favour of a
	// concurrent one. The write did not happen and can be retried.
	ErrWriteConflict = errors.New("write conflict with a concurrent transaction")
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// SeatUnavailableError means a confirmed booking already holds the seat for that date.
type SeatUnavailableError struct {
	Seat       int
	TravelDate string
	Err        error
}

func (e SeatUnavailableError) Error() string {
	if e.Seat > 0 && e.TravelDate != "" {
		return fmt.Sprintf("seat %d is already booked on %s", e.Seat, e.TravelDate)
	}
	return "seat is already booked"
}

func (e SeatUnavailableError) Unwrap() error { return e.Err }

// SeatsExhaustedError means quick-book found no free seat.
type SeatsExhaustedError struct {
	RouteID    ID
	TravelDate string
}

func (e SeatsExhaustedError) Error() string {
	if e.TravelDate != "" {
		return fmt.Sprintf("no seats left on route %d for %s", e.RouteID, e.TravelDate)
	}
	return "no seats left"
}

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// StoreUnavailableError wraps persistence failures and timeouts. The outcome of
// a write that failed this way is unknown to the caller.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e StoreUnavailableError) Error() string {
	if e.Op == "" {
		return "store unavailable"
	}
	return fmt.Sprintf("store unavailable during %s", e.Op)
}

func (e StoreUnavailableError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// StoreError wraps err as StoreUnavailableError unless it already carries a
// domain condition.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) || IsSeatUnavailable(err) || IsConflict(err) ||
		IsStoreUnavailable(err) || errors.Is(err, ErrReferenceTaken) || errors.Is(err, ErrIdempotencyKeyTaken) {
		return err
	}
	return StoreUnavailableError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsSeatUnavailable(err error) bool {
	var target SeatUnavailableError
	return errors.As(err, &target)
}

func IsSeatsExhausted(err error) bool {
	var target SeatsExhaustedError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsStoreUnavailable(err error) bool {
	var target StoreUnavailableError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
