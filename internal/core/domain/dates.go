package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for all dates
const DateLayout = "20060102"

// ParseDate parses a yyyyMMdd date string
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyyMMdd: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date in yyyyMMdd
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// SameDay reports whether two instants fall on the same UTC calendar day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the whole days from a to b (negative when b precedes a)
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
