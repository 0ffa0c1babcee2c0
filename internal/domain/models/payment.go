package models

import (
	"time"

	"busticket/internal/domain"
)

// Payment is written in the same transaction as its booking.
type Payment struct {
	ID        domain.ID `json:"id"`
	BookingID domain.ID `json:"bookingId"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

const PaymentReceived = "received"
