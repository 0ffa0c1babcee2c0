package models

import "busticket/internal/domain"

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatBooked    SeatStatus = "booked"
)

// Seat is one entry of a computed seat map.
type Seat struct {
	Number        int        `json:"number"`
	Status        SeatStatus `json:"status"`
	PassengerName string     `json:"passengerName,omitempty"`
}

// SeatOccupant is a confirmed booking reduced to what a seat map needs.
type SeatOccupant struct {
	SeatNumber    int
	PassengerName string
}

// SeatMap is derived on demand from confirmed bookings and never stored.
type SeatMap struct {
	RouteID    domain.ID `json:"routeId"`
	TravelDate string    `json:"travelDate,omitempty"`
	Capacity   int       `json:"capacity"`
	Available  int       `json:"available"`
	Seats      []Seat    `json:"seats"`
}
