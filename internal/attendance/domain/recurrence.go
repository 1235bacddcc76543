package domain

import (
	"fmt"
	"strings"
	"time"
)

// RecurrenceKind tags a RecurrenceRule.
type RecurrenceKind int

const (
	// RecurrenceOneOff assignments apply on every date inside their bounds.
	RecurrenceOneOff RecurrenceKind = iota
	RecurrenceDaily
	RecurrenceWeekly
	RecurrenceMonthly
	// RecurrenceCustom rules are not interpreted and apply on every date inside their bounds.
	RecurrenceCustom
)

func (k RecurrenceKind) String() string {
	switch k {
	case RecurrenceDaily:
		return "daily"
	case RecurrenceWeekly:
		return "weekly"
	case RecurrenceMonthly:
		return "monthly"
	case RecurrenceCustom:
		return "custom"
	default:
		return "one-off"
	}
}

// RecurrenceRule decides which in-bounds dates an assignment applies to.
type RecurrenceRule struct {
	Kind RecurrenceKind
	// Weekdays is set for weekly rules.
	Weekdays WeekdaySet
	// AnchorDay is the day of month for monthly rules.
	AnchorDay int
}

// Matches reports whether the rule selects date.
func (r RecurrenceRule) Matches(date time.Time) bool {
	switch r.Kind {
	case RecurrenceWeekly:
		return r.Weekdays.Has(date.Weekday())
	case RecurrenceMonthly:
		return date.Day() == r.AnchorDay
	default:
		return true
	}
}

// ParseRecurrence builds a rule from the loosely typed assignment columns. Monthly rules are
// anchored to the assignment start date, so they need one.
func ParseRecurrence(isRecurring bool, pattern string, days []byte, startDate *time.Time) (RecurrenceRule, error) {
	if !isRecurring {
		return RecurrenceRule{Kind: RecurrenceOneOff}, nil
	}

	switch strings.ToLower(strings.TrimSpace(pattern)) {
	case "daily":
		return RecurrenceRule{Kind: RecurrenceDaily}, nil
	case "weekly":
		set, err := ParseWeekdaySet(days)
		if err != nil {
			return RecurrenceRule{}, err
		}
		if set.Empty() {
			return RecurrenceRule{}, fmt.Errorf("weekly recurrence without days")
		}
		return RecurrenceRule{Kind: RecurrenceWeekly, Weekdays: set}, nil
	case "monthly":
		if startDate == nil {
			return RecurrenceRule{}, fmt.Errorf("monthly recurrence without start date")
		}
		return RecurrenceRule{Kind: RecurrenceMonthly, AnchorDay: startDate.Day()}, nil
	case "custom", "":
		return RecurrenceRule{Kind: RecurrenceCustom}, nil
	default:
		return RecurrenceRule{}, fmt.Errorf("unknown recurrence pattern %q", pattern)
	}
}
