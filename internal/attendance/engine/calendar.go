package engine

import (
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
)

// HolidayCalendar indexes one company's holiday rows by date.
type HolidayCalendar struct {
	days map[string]domain.Holiday
}

// NewHolidayCalendar builds the index. When a date has several rows, a non Week Off row is
// kept over a Week Off one.
func NewHolidayCalendar(holidays []domain.Holiday) HolidayCalendar {
	days := make(map[string]domain.Holiday, len(holidays))
	for _, h := range holidays {
		key := domain.DateKey(h.Date)
		if existing, ok := days[key]; ok && existing.Type != domain.HolidayTypeWeekOff {
			continue
		}
		days[key] = h
	}
	return HolidayCalendar{days: days}
}

// CalendarDay is the calendar classification of one date. Both flags may be set.
type CalendarDay struct {
	IsHoliday bool
	IsWeekOff bool
	Holiday   *domain.Holiday
}

// ResolveCalendar classifies date. A Week Off row in the holiday plan does not make the date
// a holiday; weekly offs come from the resolved shift only.
func ResolveCalendar(cal HolidayCalendar, date time.Time, shift *domain.ShiftType) CalendarDay {
	var day CalendarDay

	if h, ok := cal.days[domain.DateKey(date)]; ok && h.Type != domain.HolidayTypeWeekOff {
		day.IsHoliday = true
		day.Holiday = &h
	}

	if shift != nil && shift.WeeklyOffs.Has(date.Weekday()) {
		day.IsWeekOff = true
	}

	return day
}
