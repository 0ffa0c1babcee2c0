package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	LayoutDate  = "2006-01-02"
	LayoutClock = "15:04"
)

var clockPattern = regexp.MustCompile(`\b(\d{2}):(\d{2})\b`)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD as a calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(LayoutDate, strings.TrimSpace(s))
}

// FormatDate formats a calendar date as YYYY-MM-DD without zone conversion,
// so DATE columns scanned as midnight keep their day.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(LayoutDate)
}

// NormalizeClock extracts HH:MM from inputs like "08:00", "08:00:00" or "08:00 WIB".
func NormalizeClock(s string) (string, error) {
	m := clockPattern.FindStringSubmatch(s)
	if len(m) < 3 {
		return "", errors.New("invalid time format (expected HH:MM)")
	}
	if _, err := time.Parse(LayoutClock, m[0]); err != nil {
		return "", errors.New("invalid time format")
	}
	return m[0], nil
}
