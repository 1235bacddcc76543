package engine

import (
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/shopspring/decimal"
)

// DecisionInput gathers everything the classifier looks at for one employee day.
type DecisionInput struct {
	Calendar CalendarDay
	Punches  PunchSummary
	// Shift is nil when nothing resolved; thresholds are then zero and any punch is Present.
	Shift *domain.ShiftType
	// Leave is the approved leave covering the date, if any.
	Leave *domain.LeaveRequest
}

// Decision is the classifier's verdict.
type Decision struct {
	Status domain.AttendanceStatus
	// WorkingHours includes credited permission hours.
	WorkingHours        decimal.Decimal
	PermissionUsedHours decimal.Decimal
}

// DecideStatus classifies a day. The order of the checks is the business contract:
// holiday, week off, no punches, full day, permission, half day, then the fallbacks.
func DecideStatus(in DecisionInput, policy PermissionPolicy) Decision {
	d := Decision{
		WorkingHours:        in.Punches.WorkingHours,
		PermissionUsedHours: decimal.Zero,
	}

	switch {
	case in.Calendar.IsHoliday:
		d.Status = domain.StatusHoliday
		return d
	case in.Calendar.IsWeekOff:
		d.Status = domain.StatusWeekOff
		return d
	case !in.Punches.HasPunches():
		if in.Leave != nil {
			d.Status = domain.StatusLeave
		} else {
			d.Status = domain.StatusAbsent
		}
		return d
	}

	minimum, halfDay := decimal.Zero, decimal.Zero
	if in.Shift != nil {
		minimum, halfDay = in.Shift.MinimumHours, in.Shift.HalfDayHours
	}
	worked := in.Punches.WorkingHours

	if worked.GreaterThanOrEqual(minimum) {
		switch {
		case in.Punches.IsLate:
			d.Status = domain.StatusLate
		case in.Punches.IsEarlyExit:
			d.Status = domain.StatusEarlyExit
		default:
			d.Status = domain.StatusPresent
		}
		return d
	}

	if used, ok := policy.Cover(minimum.Sub(worked)); ok {
		d.Status = domain.StatusPermission
		d.PermissionUsedHours = used
		d.WorkingHours = worked.Add(used)
		return d
	}

	if worked.GreaterThanOrEqual(halfDay) {
		if in.Leave != nil {
			d.Status = domain.LeaveStatus(in.Leave.LeaveType)
		} else {
			d.Status = domain.StatusHalfDay
		}
		return d
	}

	switch {
	case in.Calendar.IsWeekOff:
		d.Status = domain.StatusWeekOff
	case in.Calendar.IsHoliday:
		d.Status = domain.StatusHoliday
	case in.Leave != nil:
		d.Status = domain.LeaveStatus(in.Leave.LeaveType)
	default:
		d.Status = domain.StatusAbsent
	}
	return d
}
