package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/pkg/database"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SourceRepository reads the HR data a reconciliation run is computed from.
type SourceRepository struct {
	db *database.DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *database.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

type companyRow struct {
	ID                      string          `db:"id"`
	Name                    string          `db:"name"`
	PermissionHoursPerMonth decimal.Decimal `db:"permission_hours_per_month"`
	Timezone                sql.NullString  `db:"timezone"`
}

func (r companyRow) toDomain() domain.Company {
	return domain.Company{
		ID:                      r.ID,
		Name:                    r.Name,
		PermissionHoursPerMonth: r.PermissionHoursPerMonth,
		Timezone:                r.Timezone.String,
	}
}

type employeeRow struct {
	ID                       string          `db:"id"`
	CompanyID                string          `db:"company_id"`
	Name                     string          `db:"name"`
	ShiftTypeID              *string         `db:"shift_type_id"`
	Status                   string          `db:"status"`
	RemainingPermissionHours decimal.Decimal `db:"remaining_permission_hours"`
	PermissionMonth          *string         `db:"permission_month"`
}

func (r employeeRow) toDomain() domain.Employee {
	return domain.Employee(r)
}

type shiftTypeRow struct {
	ID                 string          `db:"id"`
	CompanyID          string          `db:"company_id"`
	Name               string          `db:"name"`
	StartTime          string          `db:"start_time"`
	EndTime            string          `db:"end_time"`
	BeginCheckInBefore int             `db:"begin_check_in_before"`
	AllowCheckOutAfter int             `db:"allow_check_out_after"`
	LateGracePeriod    int             `db:"late_grace_period"`
	EarlyExitPeriod    int             `db:"early_exit_period"`
	HalfDayHours       decimal.Decimal `db:"half_day_hours"`
	MinimumHours       decimal.Decimal `db:"minimum_hours"`
	WeeklyOffs         []byte          `db:"weekly_offs"`
}

type assignmentRow struct {
	ID                string         `db:"id"`
	EmployeeID        string         `db:"employee_id"`
	ShiftTypeID       string         `db:"shift_type_id"`
	StartDate         *time.Time     `db:"start_date"`
	EndDate           *time.Time     `db:"end_date"`
	Status            string         `db:"status"`
	IsRecurring       bool           `db:"is_recurring"`
	RecurrencePattern sql.NullString `db:"recurrence_pattern"`
	RecurrenceDays    []byte         `db:"recurrence_days"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// ============================================================================
// COMPANIES & EMPLOYEES
// ============================================================================

const companyColumns = `id, name, permission_hours_per_month, timezone`

// GetCompany gets an active company by ID
func (r *SourceRepository) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	var row companyRow
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 AND is_active = true`
	err := r.db.Conn(ctx).GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("company")
	}
	if err != nil {
		return nil, err
	}
	c := row.toDomain()
	return &c, nil
}

// ListActiveCompanies lists every company the daily job covers
func (r *SourceRepository) ListActiveCompanies(ctx context.Context) ([]domain.Company, error) {
	var rows []companyRow
	query := `SELECT ` + companyColumns + ` FROM companies WHERE is_active = true ORDER BY id`
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	companies := make([]domain.Company, len(rows))
	for i, row := range rows {
		companies[i] = row.toDomain()
	}
	return companies, nil
}

const employeeColumns = `id, company_id, name, shift_type_id, status, remaining_permission_hours, permission_month`

// ListActiveEmployees lists a company's active employees, or the single employee when employeeID is set
func (r *SourceRepository) ListActiveEmployees(ctx context.Context, companyID, employeeID string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 AND status = $2`
	args := []interface{}{companyID, domain.EmployeeStatusActive}
	if employeeID != "" {
		query += ` AND id = $3`
		args = append(args, employeeID)
	}
	query += ` ORDER BY id`

	var rows []employeeRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	employees := make([]domain.Employee, len(rows))
	for i, row := range rows {
		employees[i] = row.toDomain()
	}
	return employees, nil
}

// GetEmployee gets an employee by ID regardless of status
func (r *SourceRepository) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	var row employeeRow
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	err := r.db.Conn(ctx).GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}
	e := row.toDomain()
	return &e, nil
}

// ============================================================================
// SHIFTS
// ============================================================================

// ListShiftTypes lists a company's shift types. A row whose weekly offs cannot be parsed is
// returned with LoadErr set.
func (r *SourceRepository) ListShiftTypes(ctx context.Context, companyID string) ([]domain.ShiftType, error) {
	query := `
		SELECT id, company_id, name,
		       start_time::text AS start_time, end_time::text AS end_time,
		       begin_check_in_before, allow_check_out_after,
		       late_grace_period, early_exit_period,
		       half_day_hours, minimum_hours, weekly_offs
		FROM shift_types
		WHERE company_id = $1
	`
	var rows []shiftTypeRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, err
	}

	shiftTypes := make([]domain.ShiftType, len(rows))
	for i, row := range rows {
		offs, err := domain.ParseWeekdaySet(row.WeeklyOffs)
		if err != nil {
			err = fmt.Errorf("weekly offs: %w", err)
		}
		shiftTypes[i] = domain.ShiftType{
			ID:                 row.ID,
			CompanyID:          row.CompanyID,
			Name:               row.Name,
			StartTime:          row.StartTime,
			EndTime:            row.EndTime,
			BeginCheckInBefore: row.BeginCheckInBefore,
			AllowCheckOutAfter: row.AllowCheckOutAfter,
			LateGracePeriod:    row.LateGracePeriod,
			EarlyExitPeriod:    row.EarlyExitPeriod,
			HalfDayHours:       row.HalfDayHours,
			MinimumHours:       row.MinimumHours,
			WeeklyOffs:         offs,
			LoadErr:            err,
		}
	}
	return shiftTypes, nil
}

// ListActiveAssignments lists active assignments of the employees overlapping [from, to].
// An assignment with an unreadable recurrence is returned with LoadErr set.
func (r *SourceRepository) ListActiveAssignments(ctx context.Context, employeeIDs []string, from, to time.Time) ([]domain.ShiftAssignment, error) {
	query := `
		SELECT id, employee_id, shift_type_id, start_date, end_date, status,
		       is_recurring, recurrence_pattern, recurrence_days, created_at, updated_at
		FROM shift_assignments
		WHERE employee_id = ANY($1)
		  AND status = $2
		  AND (start_date IS NULL OR start_date <= $4)
		  AND (end_date IS NULL OR end_date >= $3)
	`
	var rows []assignmentRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query,
		pq.Array(employeeIDs), domain.AssignmentStatusActive, from, to,
	); err != nil {
		return nil, err
	}

	assignments := make([]domain.ShiftAssignment, 0, len(rows))
	for _, row := range rows {
		start, end := dayPtr(row.StartDate), dayPtr(row.EndDate)
		rule, err := domain.ParseRecurrence(row.IsRecurring, row.RecurrencePattern.String, row.RecurrenceDays, start)
		if err != nil {
			err = fmt.Errorf("recurrence: %w", err)
		}
		assignments = append(assignments, domain.ShiftAssignment{
			ID:          row.ID,
			EmployeeID:  row.EmployeeID,
			ShiftTypeID: row.ShiftTypeID,
			StartDate:   start,
			EndDate:     end,
			Status:      row.Status,
			Recurrence:  rule,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			LoadErr:     err,
		})
	}
	return assignments, nil
}

// ============================================================================
// CALENDAR
// ============================================================================

// ListHolidays lists the company's holidays in [from, to] from plans active on each date.
func (r *SourceRepository) ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]domain.Holiday, error) {
	query := `
		SELECT h.id, hp.company_id, h.holiday_date, h.holiday_type, COALESCE(h.description, '') AS description
		FROM holidays h
		JOIN holiday_plans hp ON hp.id = h.holiday_plan_id
		WHERE hp.company_id = $1
		  AND hp.is_active = true
		  AND h.holiday_date BETWEEN $2 AND $3
		  AND h.holiday_date BETWEEN hp.valid_from AND hp.valid_to
		ORDER BY h.holiday_date
	`
	var rows []struct {
		ID          string    `db:"id"`
		CompanyID   string    `db:"company_id"`
		Date        time.Time `db:"holiday_date"`
		Type        string    `db:"holiday_type"`
		Description string    `db:"description"`
	}
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, companyID, from, to); err != nil {
		return nil, err
	}

	holidays := make([]domain.Holiday, len(rows))
	for i, row := range rows {
		holidays[i] = domain.Holiday{
			ID:          row.ID,
			CompanyID:   row.CompanyID,
			Date:        domain.Day(row.Date),
			Type:        row.Type,
			Description: row.Description,
		}
	}
	return holidays, nil
}

// ListApprovedLeaves lists approved leaves of the employees overlapping [from, to]
func (r *SourceRepository) ListApprovedLeaves(ctx context.Context, employeeIDs []string, from, to time.Time) ([]domain.LeaveRequest, error) {
	query := `
		SELECT lr.id, lr.employee_id, COALESCE(lt.name, '') AS leave_type, lr.start_date, lr.end_date
		FROM leave_requests lr
		LEFT JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE lr.employee_id = ANY($1)
		  AND lr.status = $2
		  AND lr.start_date <= $4
		  AND lr.end_date >= $3
	`
	var rows []struct {
		ID         string    `db:"id"`
		EmployeeID string    `db:"employee_id"`
		LeaveType  string    `db:"leave_type"`
		StartDate  time.Time `db:"start_date"`
		EndDate    time.Time `db:"end_date"`
	}
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query,
		pq.Array(employeeIDs), domain.LeaveStatusApproved, from, to,
	); err != nil {
		return nil, err
	}

	leaves := make([]domain.LeaveRequest, len(rows))
	for i, row := range rows {
		leaves[i] = domain.LeaveRequest{
			ID:         row.ID,
			EmployeeID: row.EmployeeID,
			LeaveType:  row.LeaveType,
			StartDate:  domain.Day(row.StartDate),
			EndDate:    domain.Day(row.EndDate),
		}
	}
	return leaves, nil
}

// ============================================================================
// PUNCHES
// ============================================================================

// ListPunches lists punches of the employees with from <= punch_time < to, oldest first
func (r *SourceRepository) ListPunches(ctx context.Context, employeeIDs []string, from, to time.Time) ([]domain.Punch, error) {
	query := `
		SELECT id, employee_id, punch_time, status
		FROM biometric_punches
		WHERE employee_id = ANY($1)
		  AND punch_time >= $2
		  AND punch_time < $3
		ORDER BY punch_time
	`
	var rows []struct {
		ID         string    `db:"id"`
		EmployeeID string    `db:"employee_id"`
		PunchTime  time.Time `db:"punch_time"`
		Status     string    `db:"status"`
	}
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, pq.Array(employeeIDs), from, to); err != nil {
		return nil, err
	}

	punches := make([]domain.Punch, len(rows))
	for i, row := range rows {
		punches[i] = domain.Punch{
			ID:         row.ID,
			EmployeeID: row.EmployeeID,
			PunchTime:  wallClock(row.PunchTime),
			Status:     row.Status,
		}
	}
	return punches, nil
}

// wallClock keeps the clock reading of a timestamp column and drops its zone.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.Day(*t)
	return &d
}
