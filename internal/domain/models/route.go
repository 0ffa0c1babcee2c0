package models

import (
	"strings"
	"time"

	"busticket/internal/domain"
)

type RouteStatus string

const (
	RouteActive   RouteStatus = "active"
	RouteInactive RouteStatus = "inactive"
)

// Route is owned by the route catalog; the ledger only reads it.
type Route struct {
	ID            domain.ID      `json:"id"`
	VendorID      domain.ID      `json:"vendorId"`
	Departure     string         `json:"departure"`
	Destination   string         `json:"destination"`
	DepartureTime string         `json:"departureTime"`
	Capacity      int            `json:"capacity"`
	Fare          int64          `json:"fare"`
	Status        RouteStatus    `json:"status"`
	OperatingDays []time.Weekday `json:"operatingDays"`
}

// Label renders "Departure -> Destination".
func (r Route) Label() string {
	return strings.TrimSpace(r.Departure) + " -> " + strings.TrimSpace(r.Destination)
}

func (r Route) IsActive() bool {
	return r.Status == RouteActive
}

// OperatesOn reports whether the route runs on the weekday of date.
// A route without operating days runs every day.
func (r Route) OperatesOn(date time.Time) bool {
	if len(r.OperatingDays) == 0 {
		return true
	}
	for _, d := range r.OperatingDays {
		if d == date.Weekday() {
			return true
		}
	}
	return false
}

var weekdayKeys = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseOperatingDays reads the catalog's "mon,tue,fri" column format.
// Unknown tokens are skipped.
func ParseOperatingDays(raw string) []time.Weekday {
	out := []time.Weekday{}
	seen := map[time.Weekday]bool{}
	for _, part := range strings.Split(raw, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := weekdayKeys[key]
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
