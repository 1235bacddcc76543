package service

import (
	"context"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/internal/attendance/engine"
	"github.com/hrflow/hrflow-backend/pkg/actor"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type dayOutcome struct {
	skipped bool
	created bool
	status  domain.AttendanceStatus
	// quotaTaken is the net movement out of the balance: negative when hours were released.
	quotaTaken decimal.Decimal
}

// reconcileDay computes and persists one employee day. The reads and writes of the day share
// one transaction, so a failure leaves the attendance row, the permission row and the ledger
// exactly as they were.
func (s *ReconciliationService) reconcileDay(ctx context.Context, trigger Trigger, sc *scope, emp domain.Employee, date time.Time, skipAbsent bool) (dayOutcome, error) {
	resolved := engine.ResolveShift(emp, date, sc.assignments[emp.ID], sc.shiftTypes)
	calendar := engine.ResolveCalendar(sc.calendar, date, resolved.ShiftType)

	punches, err := engine.AggregatePunches(date, resolved.ShiftType, sc.punches[emp.ID])
	if err != nil {
		return dayOutcome{}, err
	}

	absent := !punches.HasPunches() && !calendar.IsHoliday && !calendar.IsWeekOff

	leave := sc.leaveOn(emp.ID, date)
	actorID := actor.IDFromContext(ctx)

	var out dayOutcome
	err = s.store.WithinCompany(ctx, sc.company.ID, func(ctx context.Context) error {
		existing, err := s.store.GetAttendance(ctx, emp.ID, date)
		if err != nil {
			return err
		}
		// Skipping only applies to days never written; a stored day is recomputed so the
		// quota it holds is released.
		if skipAbsent && absent && existing == nil {
			out = dayOutcome{skipped: true}
			return nil
		}
		prevUsed := existing.PreviousPermissionUsed()

		var (
			policy  engine.PermissionPolicy = engine.NoPermission{}
			month                           = domain.MonthOf(date)
			balance decimal.Decimal
		)
		if trigger.managesQuota() {
			if balance, err = s.openMonth(ctx, sc.company, emp, month, actorID); err != nil {
				return err
			}
			policy = engine.QuotaPolicy{Available: engine.AvailableQuota(balance, prevUsed)}
		}

		decision := engine.DecideStatus(engine.DecisionInput{
			Calendar: calendar,
			Punches:  punches,
			Shift:    resolved.ShiftType,
			Leave:    leave,
		}, policy)

		att := buildAttendance(existing, emp, date, resolved, calendar, punches, decision, actorID)
		taken := decimal.Zero

		if trigger.managesQuota() {
			used := decision.PermissionUsedHours
			att.PermissionUsedHours = &used
			att.Remarks = domain.WithPermissionRemark(att.Remarks, used)

			settlement := engine.Settle(balance, prevUsed, used)
			taken = settlement.Delta.Neg()
			if settlement.Changed() {
				entryDate := date
				if err := s.store.AppendLedger(ctx, &domain.LedgerEntry{
					EmployeeID:     emp.ID,
					CompanyID:      sc.company.ID,
					Month:          month,
					Delta:          settlement.Delta,
					Reason:         settlement.Reason,
					AttendanceDate: &entryDate,
					CreatedBy:      actorID,
				}); err != nil {
					return errors.PersistenceFailure("append permission ledger entry", err)
				}
				if err := s.store.UpdateCachedBalance(ctx, emp.ID, month, settlement.Balance); err != nil {
					return errors.PersistenceFailure("update remaining permission hours", err)
				}
			}
		}

		created, err := s.store.SaveAttendance(ctx, att)
		if err != nil {
			return errors.PersistenceFailure("save attendance", err)
		}

		if trigger.managesQuota() {
			switch {
			case decision.PermissionUsedHours.IsPositive():
				if err := s.store.UpsertPermission(ctx, &domain.Permission{
					EmployeeID:     emp.ID,
					CompanyID:      sc.company.ID,
					AttendanceID:   att.ID,
					PermissionDate: date,
					Hours:          decision.PermissionUsedHours,
					CreatedBy:      actorID,
				}); err != nil {
					return errors.PersistenceFailure("save permission", err)
				}
			case prevUsed.IsPositive():
				if err := s.store.DeletePermission(ctx, emp.ID, date); err != nil {
					return errors.PersistenceFailure("delete permission", err)
				}
			}
		}

		out = dayOutcome{
			created:    created,
			status:     decision.Status,
			quotaTaken: taken,
		}
		return nil
	})
	if err != nil {
		return dayOutcome{}, err
	}
	return out, nil
}

// openMonth returns the employee's balance for month, granting the company quota the first
// time the month is touched.
func (s *ReconciliationService) openMonth(ctx context.Context, company *domain.Company, emp domain.Employee, month, actorID string) (decimal.Decimal, error) {
	mb, err := s.store.MonthBalance(ctx, emp.ID, month)
	if err != nil {
		return decimal.Zero, err
	}
	if mb.HasGrant {
		return mb.Balance, nil
	}

	grant := company.PermissionHoursPerMonth
	if err := s.store.AppendLedger(ctx, &domain.LedgerEntry{
		EmployeeID: emp.ID,
		CompanyID:  company.ID,
		Month:      month,
		Delta:      grant,
		Reason:     domain.LedgerGrant,
		CreatedBy:  actorID,
	}); err != nil {
		return decimal.Zero, errors.PersistenceFailure("grant monthly permission quota", err)
	}

	balance := mb.Balance.Add(grant)
	if err := s.store.UpdateCachedBalance(ctx, emp.ID, month, balance); err != nil {
		return decimal.Zero, errors.PersistenceFailure("update remaining permission hours", err)
	}

	s.logger.Debug().
		Str("employee_id", emp.ID).
		Str("month", month).
		Str("quota", grant.String()).
		Msg("permission quota granted")
	return balance, nil
}

// buildAttendance lays the computed day over the existing row, keeping its identity and the
// permission bookkeeping of runs that do not manage the quota.
func buildAttendance(existing *domain.Attendance, emp domain.Employee, date time.Time, resolved engine.ResolvedShift,
	calendar engine.CalendarDay, punches engine.PunchSummary, decision engine.Decision, actorID string) *domain.Attendance {
	att := &domain.Attendance{
		EmployeeID:       emp.ID,
		CompanyID:        emp.CompanyID,
		AttendanceDate:   date,
		FirstCheckIn:     punches.FirstCheckIn,
		LastCheckOut:     punches.LastCheckOut,
		PunchCount:       punches.PunchCount,
		WorkingHours:     decision.WorkingHours,
		OvertimeHours:    punches.OvertimeHours,
		IsLate:           punches.IsLate,
		LateByMinutes:    punches.LateByMinutes,
		IsEarlyExit:      punches.IsEarlyExit,
		EarlyExitMinutes: punches.EarlyExitMinutes,
		IsHoliday:        calendar.IsHoliday,
		IsWeekOff:        calendar.IsWeekOff,
		Status:           decision.Status,
		CreatedBy:        actorID,
		UpdatedBy:        actorID,
	}
	if resolved.ShiftType != nil {
		id := resolved.ShiftType.ID
		att.ShiftTypeID = &id
	}
	if existing != nil {
		att.ID = existing.ID
		att.CreatedBy = existing.CreatedBy
		att.Remarks = existing.Remarks
		att.PermissionUsedHours = existing.PermissionUsedHours
	}
	return att
}
