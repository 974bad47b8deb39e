package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in plan files and API payloads.
const DateLayout = "2006-01-02"

// AddMonths adds months to a date, clamping the day to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29 rather than Mar 3).
func AddMonths(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m, 1, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
	target := first.AddDate(0, months, 0)
	if last := DaysInMonth(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

// PeriodDate returns the due date of a 1-based monthly period counted from start.
// Dates are always anchored on start so that clamping never accumulates.
func PeriodDate(start time.Time, period int) time.Time {
	return AddMonths(start, period)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// YearsForMonths returns the number of yearly buckets needed to cover months
func YearsForMonths(months int) int {
	if months <= 0 {
		return 0
	}
	return (months + 11) / 12
}

// BeginningOfMonth returns midnight on the first day of the date's month
func BeginningOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// ParseDate parses a YYYY-MM-DD date in UTC. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
