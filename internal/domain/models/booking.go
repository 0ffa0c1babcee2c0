package models

import (
	"time"

	"busticket/internal/domain"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type BookingSource string

const (
	SourceWalkIn BookingSource = "walk-in"
	SourceOnline BookingSource = "online"
)

// Booking assigns one passenger to one seat on one route/travel date.
// Rows are never deleted; cancellation only flips Status.
type Booking struct {
	ID               domain.ID     `json:"id"`
	RouteID          domain.ID     `json:"routeId"`
	TravelDate       string        `json:"travelDate"`
	SeatNumber       int           `json:"seatNumber"`
	PassengerName    string        `json:"passengerName"`
	Phone            string        `json:"phone"`
	Email            string        `json:"email"`
	Amount           int64         `json:"amount"`
	Status           BookingStatus `json:"status"`
	BookingReference string        `json:"bookingReference"`
	CreatedAt        time.Time     `json:"createdAt"`
	CancelledAt      *time.Time    `json:"cancelledAt,omitempty"`
	Source           BookingSource `json:"source"`
	IdempotencyKey   string        `json:"-"`
}

func (b Booking) IsConfirmed() bool {
	return b.Status == BookingConfirmed
}
