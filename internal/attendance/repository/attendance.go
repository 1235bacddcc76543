package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/pkg/database"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// AttendanceRepository persists attendance and permission rows.
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

type attendanceRow struct {
	ID                  string              `db:"id"`
	EmployeeID          string              `db:"employee_id"`
	CompanyID           string              `db:"company_id"`
	AttendanceDate      time.Time           `db:"attendance_date"`
	ShiftTypeID         *string             `db:"shift_type_id"`
	FirstCheckIn        *time.Time          `db:"first_check_in"`
	LastCheckOut        *time.Time          `db:"last_check_out"`
	PunchCount          int                 `db:"punch_count"`
	WorkingHours        decimal.Decimal     `db:"working_hours"`
	OvertimeHours       decimal.Decimal     `db:"overtime_hours"`
	IsLate              bool                `db:"is_late"`
	LateByMinutes       int                 `db:"late_by_minutes"`
	IsEarlyExit         bool                `db:"is_early_exit"`
	EarlyExitMinutes    int                 `db:"early_exit_minutes"`
	IsHoliday           bool                `db:"is_holiday"`
	IsWeekOff           bool                `db:"is_week_off"`
	Status              string              `db:"attendance_status"`
	PermissionUsedHours decimal.NullDecimal `db:"permission_used_hours"`
	Remarks             string              `db:"remarks"`
	CreatedBy           *string             `db:"created_by"`
	UpdatedBy           *string             `db:"updated_by"`
}

func (r attendanceRow) toDomain() *domain.Attendance {
	att := &domain.Attendance{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		CompanyID:        r.CompanyID,
		AttendanceDate:   domain.Day(r.AttendanceDate),
		ShiftTypeID:      r.ShiftTypeID,
		FirstCheckIn:     wallClockPtr(r.FirstCheckIn),
		LastCheckOut:     wallClockPtr(r.LastCheckOut),
		PunchCount:       r.PunchCount,
		WorkingHours:     r.WorkingHours,
		OvertimeHours:    r.OvertimeHours,
		IsLate:           r.IsLate,
		LateByMinutes:    r.LateByMinutes,
		IsEarlyExit:      r.IsEarlyExit,
		EarlyExitMinutes: r.EarlyExitMinutes,
		IsHoliday:        r.IsHoliday,
		IsWeekOff:        r.IsWeekOff,
		Status:           domain.AttendanceStatus(r.Status),
		Remarks:          r.Remarks,
		CreatedBy:        deref(r.CreatedBy),
		UpdatedBy:        deref(r.UpdatedBy),
	}
	if r.PermissionUsedHours.Valid {
		used := r.PermissionUsedHours.Decimal
		att.PermissionUsedHours = &used
	}
	return att
}

// GetAttendance gets the row of one employee day, or nil when the day has none
func (r *AttendanceRepository) GetAttendance(ctx context.Context, employeeID string, date time.Time) (*domain.Attendance, error) {
	query := `
		SELECT id, employee_id, company_id, attendance_date, shift_type_id,
		       first_check_in, last_check_out, punch_count, working_hours, overtime_hours,
		       is_late, late_by_minutes, is_early_exit, early_exit_minutes,
		       is_holiday, is_week_off, attendance_status, permission_used_hours,
		       COALESCE(remarks, '') AS remarks, created_by, updated_by
		FROM attendance
		WHERE employee_id = $1 AND attendance_date = $2
		FOR UPDATE
	`
	var row attendanceRow
	err := r.db.Conn(ctx).GetContext(ctx, &row, query, employeeID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// SaveAttendance updates the row by ID, or inserts it when att has no ID yet
func (r *AttendanceRepository) SaveAttendance(ctx context.Context, att *domain.Attendance) (bool, error) {
	var used decimal.NullDecimal
	if att.PermissionUsedHours != nil {
		used = decimal.NullDecimal{Decimal: *att.PermissionUsedHours, Valid: true}
	}

	if att.ID != "" {
		query := `
			UPDATE attendance SET
				shift_type_id = $2, first_check_in = $3, last_check_out = $4, punch_count = $5,
				working_hours = $6, overtime_hours = $7, is_late = $8, late_by_minutes = $9,
				is_early_exit = $10, early_exit_minutes = $11, is_holiday = $12, is_week_off = $13,
				attendance_status = $14, permission_used_hours = $15, remarks = $16,
				updated_by = $17, updated_at = NOW()
			WHERE id = $1
		`
		result, err := r.db.Conn(ctx).ExecContext(ctx, query,
			att.ID, att.ShiftTypeID, att.FirstCheckIn, att.LastCheckOut, att.PunchCount,
			att.WorkingHours, att.OvertimeHours, att.IsLate, att.LateByMinutes,
			att.IsEarlyExit, att.EarlyExitMinutes, att.IsHoliday, att.IsWeekOff,
			string(att.Status), used, att.Remarks, nullable(att.UpdatedBy),
		)
		if err != nil {
			return false, mapError(err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return false, errors.NotFound("attendance")
		}
		return false, nil
	}

	att.ID = uuid.New().String()
	query := `
		INSERT INTO attendance (
			id, employee_id, company_id, attendance_date, shift_type_id,
			first_check_in, last_check_out, punch_count, working_hours, overtime_hours,
			is_late, late_by_minutes, is_early_exit, early_exit_minutes,
			is_holiday, is_week_off, attendance_status, permission_used_hours, remarks,
			created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		att.ID, att.EmployeeID, att.CompanyID, att.AttendanceDate, att.ShiftTypeID,
		att.FirstCheckIn, att.LastCheckOut, att.PunchCount, att.WorkingHours, att.OvertimeHours,
		att.IsLate, att.LateByMinutes, att.IsEarlyExit, att.EarlyExitMinutes,
		att.IsHoliday, att.IsWeekOff, string(att.Status), used, att.Remarks,
		nullable(att.CreatedBy), nullable(att.UpdatedBy),
	)
	if err != nil {
		att.ID = ""
		return false, mapError(err)
	}
	return true, nil
}

// UpsertPermission writes the single permission row of an employee day
func (r *AttendanceRepository) UpsertPermission(ctx context.Context, p *domain.Permission) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO permissions (id, employee_id, company_id, attendance_id, permission_date, hours, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, permission_date) DO UPDATE SET
			attendance_id = EXCLUDED.attendance_id,
			hours = EXCLUDED.hours,
			updated_at = NOW()
		RETURNING id
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		p.ID, p.EmployeeID, p.CompanyID, p.AttendanceID, p.PermissionDate, p.Hours, nullable(p.CreatedBy),
	).Scan(&p.ID)
	return mapError(err)
}

// DeletePermission removes the permission row of an employee day if there is one
func (r *AttendanceRepository) DeletePermission(ctx context.Context, employeeID string, date time.Time) error {
	query := `DELETE FROM permissions WHERE employee_id = $1 AND permission_date = $2`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, employeeID, date)
	return err
}

// mapError turns constraint violations into AppErrors and passes anything else through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func wallClockPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	w := wallClock(*t)
	return &w
}
