// Package domain holds the entities the attendance engine reads and writes.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Company is a tenant with its monthly permission quota.
type Company struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	PermissionHoursPerMonth decimal.Decimal `json:"permission_hours_per_month"`
	Timezone                string          `json:"timezone,omitempty"`
}

// Employee is an active member of a company.
type Employee struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	Name        string  `json:"name"`
	ShiftTypeID *string `json:"shift_type_id,omitempty"`
	Status      string  `json:"status"`
	// RemainingPermissionHours caches the ledger balance of PermissionMonth.
	RemainingPermissionHours decimal.Decimal `json:"remaining_permission_hours"`
	PermissionMonth          *string         `json:"permission_month,omitempty"`
}

// ShiftType is a shift configuration. Times are HH:MM[:SS] wall clock values.
type ShiftType struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	Name               string          `json:"name"`
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	BeginCheckInBefore int             `json:"begin_check_in_before"`
	AllowCheckOutAfter int             `json:"allow_check_out_after"`
	LateGracePeriod    int             `json:"late_grace_period"`
	EarlyExitPeriod    int             `json:"early_exit_period"`
	HalfDayHours       decimal.Decimal `json:"half_day_hours"`
	MinimumHours       decimal.Decimal `json:"minimum_hours"`
	WeeklyOffs         WeekdaySet      `json:"-"`
	// LoadErr is set when a stored column could not be decoded.
	LoadErr error `json:"-"`
}

// Validate enforces the threshold ordering the status decision relies on.
func (s ShiftType) Validate() error {
	if s.LoadErr != nil {
		return fmt.Errorf("shift type %s: %w", s.ID, s.LoadErr)
	}
	if _, err := ParseTimeOfDay(s.StartTime); err != nil {
		return fmt.Errorf("shift type %s: start time: %w", s.ID, err)
	}
	if _, err := ParseTimeOfDay(s.EndTime); err != nil {
		return fmt.Errorf("shift type %s: end time: %w", s.ID, err)
	}
	if s.HalfDayHours.IsNegative() || s.MinimumHours.IsNegative() {
		return fmt.Errorf("shift type %s: hour thresholds must not be negative", s.ID)
	}
	if !s.HalfDayHours.LessThan(s.MinimumHours) {
		return fmt.Errorf("shift type %s: half day hours %s must be below minimum hours %s",
			s.ID, s.HalfDayHours, s.MinimumHours)
	}
	if s.BeginCheckInBefore < 0 || s.AllowCheckOutAfter < 0 || s.LateGracePeriod < 0 || s.EarlyExitPeriod < 0 {
		return fmt.Errorf("shift type %s: minute windows must not be negative", s.ID)
	}
	return nil
}

// ParseTimeOfDay parses HH:MM or HH:MM:SS into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// ShiftAssignment binds an employee to a shift type, optionally bounded and recurring.
type ShiftAssignment struct {
	ID          string
	EmployeeID  string
	ShiftTypeID string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      string
	Recurrence  RecurrenceRule
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// LoadErr is set when the stored recurrence could not be decoded.
	LoadErr error
}

// Validate reports an assignment whose recurrence could not be read.
func (a ShiftAssignment) Validate() error {
	if a.LoadErr != nil {
		return fmt.Errorf("shift assignment %s: %w", a.ID, a.LoadErr)
	}
	return nil
}

// Covers reports whether date is inside the assignment's bounds.
func (a ShiftAssignment) Covers(date time.Time) bool {
	if a.StartDate != nil && date.Before(Day(*a.StartDate)) {
		return false
	}
	if a.EndDate != nil && date.After(Day(*a.EndDate)) {
		return false
	}
	return true
}

// Holiday is a dated entry of the company's active holiday plan.
type Holiday struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
}

// LeaveRequest is an approved leave over [StartDate, EndDate].
type LeaveRequest struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// Covers reports whether date falls inside the leave.
func (l LeaveRequest) Covers(date time.Time) bool {
	return !date.Before(Day(l.StartDate)) && !date.After(Day(l.EndDate))
}

// Punch is one biometric event. PunchTime is a wall clock timestamp.
type Punch struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	PunchTime  time.Time `json:"punch_time"`
	Status     string    `json:"status"`
}

// Valid reports whether the punch participates in aggregation.
func (p Punch) Valid() bool {
	return p.Status != PunchStatusInvalid
}

// Attendance is the single record of one employee day.
type Attendance struct {
	ID               string           `json:"id"`
	EmployeeID       string           `json:"employee_id"`
	CompanyID        string           `json:"company_id"`
	AttendanceDate   time.Time        `json:"attendance_date"`
	ShiftTypeID      *string          `json:"shift_type_id,omitempty"`
	FirstCheckIn     *time.Time       `json:"first_check_in,omitempty"`
	LastCheckOut     *time.Time       `json:"last_check_out,omitempty"`
	PunchCount       int              `json:"punch_count"`
	WorkingHours     decimal.Decimal  `json:"working_hours"`
	OvertimeHours    decimal.Decimal  `json:"overtime_hours"`
	IsLate           bool             `json:"is_late"`
	LateByMinutes    int              `json:"late_by_minutes"`
	IsEarlyExit      bool             `json:"is_early_exit"`
	EarlyExitMinutes int              `json:"early_exit_minutes"`
	IsHoliday        bool             `json:"is_holiday"`
	IsWeekOff        bool             `json:"is_week_off"`
	Status           AttendanceStatus `json:"attendance_status"`
	// PermissionUsedHours is nil on rows written before the column existed.
	PermissionUsedHours *decimal.Decimal `json:"permission_used_hours,omitempty"`
	Remarks             string           `json:"remarks"`
	CreatedBy           string           `json:"created_by,omitempty"`
	UpdatedBy           string           `json:"updated_by,omitempty"`
}

// Permission records quota hours consumed on one date.
type Permission struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	CompanyID      string          `json:"company_id"`
	AttendanceID   string          `json:"attendance_id"`
	PermissionDate time.Time       `json:"permission_date"`
	Hours          decimal.Decimal `json:"hours"`
	CreatedBy      string          `json:"created_by,omitempty"`
}

// LedgerReason classifies a ledger entry.
type LedgerReason string

const (
	LedgerGrant   LedgerReason = "grant"
	LedgerConsume LedgerReason = "consume"
	LedgerRelease LedgerReason = "release"
)

// LedgerEntry is one append-only movement of an employee's monthly quota.
type LedgerEntry struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	CompanyID      string          `json:"company_id"`
	Month          string          `json:"month"`
	Delta          decimal.Decimal `json:"delta"`
	Reason         LedgerReason    `json:"reason"`
	AttendanceDate *time.Time      `json:"attendance_date,omitempty"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
