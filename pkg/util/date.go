package util

import "time"

const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in YYYY-MM-DD form. Returns (t, true) if it worked.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Midnight truncates t to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats a date as YYYY-MM-DD for use as a map key or wire value.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of whole days from a to b. Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / (24 * time.Hour))
}

// ISOWeek returns the ISO 8601 week number for a date.
func ISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}
