package utils

import "strings"

// Fallback rules for values a caller may omit. Every defaulting decision made
// while booking a seat lives here.

// ResolveAmount returns the amount to charge: the requested amount when the
// caller set one, otherwise the route fare at booking time.
func ResolveAmount(requested, routeFare int64) int64 {
	if requested > 0 {
		return requested
	}
	return routeFare
}

// ResolveRecipient picks who a booking notification is addressed to:
// email first, then phone, then the passenger name.
func ResolveRecipient(email, phone, passengerName string) string {
	return FirstNonEmpty(email, phone, passengerName)
}

// ResolveSource normalizes a booking source label; unknown or empty values
// fall back to fallback.
func ResolveSource(raw, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "walk-in", "walkin", "walk_in", "counter":
		return "walk-in"
	case "online", "web", "app":
		return "online"
	default:
		return fallback
	}
}

// ResolvePaymentMethod maps a source to the payment method recorded with the booking
// when the caller did not name one.
func ResolvePaymentMethod(raw, source string) string {
	m := strings.ToLower(strings.TrimSpace(raw))
	switch m {
	case "cash", "transfer", "qris", "card", "online":
		return m
	}
	if source == "walk-in" {
		return "cash"
	}
	return "online"
}
