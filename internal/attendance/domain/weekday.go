package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekdaySet is a bitmask of weekdays.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Empty reports whether no day is set.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Days lists the members from Sunday to Saturday.
func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String())
	}
	return strings.Join(names, ",")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts English names, three letter abbreviations, and 0-6 with 0 as Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), `"'`))
	if d, ok := weekdayNames[s]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdaySet normalizes the shapes day sets are stored in: a JSON array of names or
// numbers, a JSON string, a PostgreSQL array literal, or a comma separated list.
// Empty input yields an empty set.
func ParseWeekdaySet(raw []byte) (WeekdaySet, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" || text == "{}" || text == "[]" {
		return 0, nil
	}

	var items []string
	switch {
	case strings.HasPrefix(text, "["):
		var values []interface{}
		if err := json.Unmarshal([]byte(text), &values); err != nil {
			return 0, fmt.Errorf("invalid weekday list %q: %w", text, err)
		}
		for _, v := range values {
			items = append(items, fmt.Sprint(v))
		}
	case strings.HasPrefix(text, `"`):
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err != nil {
			return 0, fmt.Errorf("invalid weekday list %q: %w", text, err)
		}
		return ParseWeekdaySet([]byte(inner))
	case strings.HasPrefix(text, "{"):
		items = strings.Split(strings.Trim(text, "{}"), ",")
	default:
		items = strings.Split(text, ",")
	}

	var set WeekdaySet
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		d, err := ParseWeekday(item)
		if err != nil {
			return 0, err
		}
		set |= NewWeekdaySet(d)
	}
	return set, nil
}
