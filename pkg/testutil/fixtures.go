package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CompanyFixture represents test company data
type CompanyFixture struct {
	ID                      string
	Name                    string
	PermissionHoursPerMonth string
}

// ShiftTypeFixture represents test shift type data
type ShiftTypeFixture struct {
	ID                 string
	CompanyID          string
	Name               string
	StartTime          string
	EndTime            string
	BeginCheckInBefore int
	AllowCheckOutAfter int
	LateGracePeriod    int
	EarlyExitPeriod    int
	HalfDayHours       string
	MinimumHours       string
	WeeklyOffs         string
}

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID          string
	CompanyID   string
	Name        string
	ShiftTypeID *string
	Status      string
}

// FixtureFactory inserts rows with sensible defaults
type FixtureFactory struct {
	db       *sqlx.DB
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory(db *sqlx.DB) *FixtureFactory {
	return &FixtureFactory{db: db}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

func (f *FixtureFactory) exec(t *testing.T, ctx context.Context, query string, args ...interface{}) {
	t.Helper()
	if _, err := f.db.ExecContext(ctx, query, args...); err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}

// Company inserts a company with a 4 hour monthly permission quota
func (f *FixtureFactory) Company(t *testing.T, ctx context.Context, opts ...func(*CompanyFixture)) CompanyFixture {
	t.Helper()
	c := CompanyFixture{
		ID:                      uuid.New().String(),
		Name:                    fmt.Sprintf("Company %d", f.nextSeq()),
		PermissionHoursPerMonth: "4",
	}
	for _, opt := range opts {
		opt(&c)
	}

	f.exec(t, ctx, `INSERT INTO companies (id, name, permission_hours_per_month) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.PermissionHoursPerMonth)
	return c
}

// WithQuota sets the company's monthly permission hours
func WithQuota(hours string) func(*CompanyFixture) {
	return func(c *CompanyFixture) {
		c.PermissionHoursPerMonth = hours
	}
}

// ShiftType inserts a 09:00-17:00 shift with Sunday off, 6 minimum and 4 half-day hours
func (f *FixtureFactory) ShiftType(t *testing.T, ctx context.Context, companyID string, opts ...func(*ShiftTypeFixture)) ShiftTypeFixture {
	t.Helper()
	s := ShiftTypeFixture{
		ID:                 uuid.New().String(),
		CompanyID:          companyID,
		Name:               fmt.Sprintf("Shift %d", f.nextSeq()),
		StartTime:          "09:00:00",
		EndTime:            "17:00:00",
		BeginCheckInBefore: 60,
		AllowCheckOutAfter: 120,
		LateGracePeriod:    15,
		EarlyExitPeriod:    15,
		HalfDayHours:       "4",
		MinimumHours:       "6",
		WeeklyOffs:         `["Sunday"]`,
	}
	for _, opt := range opts {
		opt(&s)
	}

	f.exec(t, ctx, `
		INSERT INTO shift_types (
			id, company_id, name, start_time, end_time, begin_check_in_before, allow_check_out_after,
			late_grace_period, early_exit_period, half_day_hours, minimum_hours, weekly_offs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.CompanyID, s.Name, s.StartTime, s.EndTime, s.BeginCheckInBefore, s.AllowCheckOutAfter,
		s.LateGracePeriod, s.EarlyExitPeriod, s.HalfDayHours, s.MinimumHours, s.WeeklyOffs)
	return s
}

// Employee inserts an active employee on the given default shift (may be empty)
func (f *FixtureFactory) Employee(t *testing.T, ctx context.Context, companyID, shiftTypeID string) EmployeeFixture {
	t.Helper()
	e := EmployeeFixture{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      fmt.Sprintf("Employee %d", f.nextSeq()),
		Status:    "Active",
	}
	if shiftTypeID != "" {
		e.ShiftTypeID = &shiftTypeID
	}

	f.exec(t, ctx, `INSERT INTO employees (id, company_id, name, shift_type_id, status) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.CompanyID, e.Name, e.ShiftTypeID, e.Status)
	return e
}

// Punch inserts a valid punch at the given wall clock time ("2006-01-02 15:04")
func (f *FixtureFactory) Punch(t *testing.T, ctx context.Context, employeeID, at string) {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", at)
	if err != nil {
		t.Fatalf("bad punch time %q: %v", at, err)
	}
	f.exec(t, ctx, `INSERT INTO biometric_punches (employee_id, punch_time, status) VALUES ($1, $2, 'Valid')`,
		employeeID, ts)
}

// Holiday inserts a holiday inside a plan valid for the whole year of date
func (f *FixtureFactory) Holiday(t *testing.T, ctx context.Context, companyID, date, holidayType string) {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad holiday date %q: %v", date, err)
	}
	planID := uuid.New().String()
	f.exec(t, ctx, `INSERT INTO holiday_plans (id, company_id, name, valid_from, valid_to) VALUES ($1, $2, $3, $4, $5)`,
		planID, companyID, fmt.Sprintf("Plan %d", f.nextSeq()),
		time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC), time.Date(d.Year(), 12, 31, 0, 0, 0, 0, time.UTC))
	f.exec(t, ctx, `INSERT INTO holidays (holiday_plan_id, holiday_date, holiday_type) VALUES ($1, $2, $3)`,
		planID, d, holidayType)
}

// ApprovedLeave inserts an approved leave of the named type over [from, to]
func (f *FixtureFactory) ApprovedLeave(t *testing.T, ctx context.Context, companyID, employeeID, leaveType, from, to string) {
	t.Helper()
	typeID := uuid.New().String()
	f.exec(t, ctx, `INSERT INTO leave_types (id, company_id, name) VALUES ($1, $2, $3)`, typeID, companyID, leaveType)
	f.exec(t, ctx, `
		INSERT INTO leave_requests (employee_id, leave_type_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, 'Approved')`,
		employeeID, typeID, from, to)
}
