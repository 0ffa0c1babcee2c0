package models

import "time"

type NotificationKind string

const (
	NotifyBookingConfirmed NotificationKind = "booking_confirmed"
	NotifyPaymentReceived  NotificationKind = "payment_received"
)

// Notification is the logical message handed to a notification sink.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	Recipient  string           `json:"recipient"`
	Route      string           `json:"route,omitempty"`
	Reference  string           `json:"reference,omitempty"`
	TravelDate string           `json:"travelDate"`
	Time       string           `json:"time"`
	CreatedAt  time.Time        `json:"createdAt"`
}
