package engine

import (
	"sort"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Schedule is a shift laid onto a concrete date.
type Schedule struct {
	Start time.Time
	End   time.Time
	// AcceptFrom and AcceptTo bound the punches that count for the day.
	AcceptFrom time.Time
	AcceptTo   time.Time
}

// Hours is the scheduled length of the shift.
func (s Schedule) Hours() decimal.Decimal {
	return hoursBetween(s.Start, s.End)
}

// ScheduleFor places shift on date. An end at or before the start rolls over to the next day.
func ScheduleFor(date time.Time, shift *domain.ShiftType) (Schedule, error) {
	startOffset, err := domain.ParseTimeOfDay(shift.StartTime)
	if err != nil {
		return Schedule{}, errors.ConfigurationInconsistency("shift type " + shift.ID + " has an invalid start time")
	}
	endOffset, err := domain.ParseTimeOfDay(shift.EndTime)
	if err != nil {
		return Schedule{}, errors.ConfigurationInconsistency("shift type " + shift.ID + " has an invalid end time")
	}

	day := domain.Day(date)
	start := day.Add(startOffset)
	end := day.Add(endOffset)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	return Schedule{
		Start:      start,
		End:        end,
		AcceptFrom: start.Add(-time.Duration(shift.BeginCheckInBefore) * time.Minute),
		AcceptTo:   end.Add(time.Duration(shift.AllowCheckOutAfter) * time.Minute),
	}, nil
}

// PunchSummary reduces one day of punches.
type PunchSummary struct {
	FirstCheckIn     *time.Time
	LastCheckOut     *time.Time
	PunchCount       int
	WorkingHours     decimal.Decimal
	OvertimeHours    decimal.Decimal
	IsLate           bool
	LateByMinutes    int
	IsEarlyExit      bool
	EarlyExitMinutes int
}

// HasPunches reports whether any valid punch fell in the window.
func (s PunchSummary) HasPunches() bool {
	return s.PunchCount > 0
}

// AggregatePunches selects the punches belonging to date and derives times and flags.
// Without a shift every valid punch stamped on date counts and no lateness is computed.
// A single punch yields a check-in with no check-out and zero working hours.
func AggregatePunches(date time.Time, shift *domain.ShiftType, punches []domain.Punch) (PunchSummary, error) {
	var (
		schedule Schedule
		err      error
	)
	if shift != nil {
		if schedule, err = ScheduleFor(date, shift); err != nil {
			return PunchSummary{}, err
		}
	}

	day := domain.Day(date)
	var times []time.Time
	for _, p := range punches {
		if !p.Valid() {
			continue
		}
		if shift != nil {
			if p.PunchTime.Before(schedule.AcceptFrom) || p.PunchTime.After(schedule.AcceptTo) {
				continue
			}
		} else if !domain.Day(p.PunchTime).Equal(day) {
			continue
		}
		times = append(times, p.PunchTime)
	}

	summary := PunchSummary{
		PunchCount:    len(times),
		WorkingHours:  decimal.Zero,
		OvertimeHours: decimal.Zero,
	}
	if len(times) == 0 {
		return summary, nil
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	first := times[0]
	summary.FirstCheckIn = &first
	if len(times) > 1 {
		last := times[len(times)-1]
		summary.LastCheckOut = &last
		summary.WorkingHours = hoursBetween(first, last)
	}

	if shift == nil {
		return summary, nil
	}

	if overtime := summary.WorkingHours.Sub(schedule.Hours()); overtime.IsPositive() {
		summary.OvertimeHours = overtime
	}

	lateLimit := schedule.Start.Add(time.Duration(shift.LateGracePeriod) * time.Minute)
	if first.After(lateLimit) {
		summary.IsLate = true
		summary.LateByMinutes = int(first.Sub(lateLimit) / time.Minute)
	}

	if summary.LastCheckOut != nil {
		exitLimit := schedule.End.Add(-time.Duration(shift.EarlyExitPeriod) * time.Minute)
		if summary.LastCheckOut.Before(exitLimit) {
			summary.IsEarlyExit = true
			summary.EarlyExitMinutes = int(exitLimit.Sub(*summary.LastCheckOut) / time.Minute)
		}
	}

	return summary, nil
}

// hoursBetween returns max(0, to-from) in hours rounded to two places.
func hoursBetween(from, to time.Time) decimal.Decimal {
	d := to.Sub(from)
	if d <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600)).Round(2)
}
