package handlers

import (
	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/services"
)

// reserveRequest is the body of the booking endpoints. Presence and range
// checks that depend on the route are left to the ledger so they run in order.
type reserveRequest struct {
	TravelDate     string `json:"travelDate" binding:"max=10"`
	SeatNumber     *int   `json:"seatNumber"`
	PassengerName  string `json:"passengerName" binding:"max=255"`
	Phone          string `json:"phone" binding:"max=32"`
	Email          string `json:"email" binding:"omitempty,email,max=255"`
	Amount         int64  `json:"amount"`
	PaymentMethod  string `json:"paymentMethod" binding:"omitempty,oneof=cash transfer qris card online"`
	IdempotencyKey string `json:"idempotencyKey" binding:"max=128"`
}

func (r reserveRequest) input(routeID domain.ID, source models.BookingSource, headerKey string) services.ReserveInput {
	in := services.ReserveInput{
		RouteID:        routeID,
		TravelDate:     r.TravelDate,
		PassengerName:  r.PassengerName,
		Phone:          r.Phone,
		Email:          r.Email,
		Amount:         r.Amount,
		Source:         source,
		PaymentMethod:  r.PaymentMethod,
		IdempotencyKey: r.IdempotencyKey,
	}
	if headerKey != "" {
		in.IdempotencyKey = headerKey
	}
	if r.SeatNumber != nil {
		in.SeatNumber = *r.SeatNumber
	}
	return in
}

type cancelResponse struct {
	Booking models.Booking `json:"booking"`
	Changed bool           `json:"changed"`
}

type bookingListResponse struct {
	RouteID    domain.ID        `json:"routeId"`
	TravelDate string           `json:"travelDate,omitempty"`
	Count      int              `json:"count"`
	Bookings   []models.Booking `json:"bookings"`
}
