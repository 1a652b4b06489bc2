package types

import "time"

// DateLayout is the canonical date format used across configs, caches and exports.
const DateLayout = "2006-01-02"

// Day truncates a timestamp to its UTC calendar day. All simulation dates are
// normalized through this function so they can be used as map keys.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the calendar day after d.
func NextDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, 1)
}

// PrevDay returns the calendar day before d.
func PrevDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, -1)
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	weekday := d.Weekday()

	return weekday == time.Saturday || weekday == time.Sunday
}
