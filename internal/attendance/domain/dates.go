package domain

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Day truncates t to its calendar date, keeping the wall clock of t's location as UTC.
// All civil dates in this package are midnight UTC values.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateKey formats a civil date for map lookups and logging.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// MonthOf returns the quota month (YYYY-MM) a date belongs to.
func MonthOf(t time.Time) string {
	return t.Format(MonthLayout)
}

// EachDay calls fn for every date in [from, to].
func EachDay(from, to time.Time, fn func(time.Time)) {
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
