package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/database"
	"github.com/shopspring/decimal"
)

// LedgerRepository appends to and sums the permission ledger.
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// MonthBalance sums the month's entries and reports whether its grant was written
func (r *LedgerRepository) MonthBalance(ctx context.Context, employeeID, month string) (service.MonthBalance, error) {
	query := `
		SELECT COALESCE(SUM(delta), 0) AS balance,
		       COALESCE(BOOL_OR(reason = 'grant'), false) AS has_grant
		FROM permission_ledger
		WHERE employee_id = $1 AND month = $2
	`
	var row struct {
		Balance  decimal.Decimal `db:"balance"`
		HasGrant bool            `db:"has_grant"`
	}
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, employeeID, month); err != nil {
		return service.MonthBalance{}, err
	}
	return service.MonthBalance{Balance: row.Balance, HasGrant: row.HasGrant}, nil
}

// AppendLedger inserts one entry. Entries are never updated or deleted.
func (r *LedgerRepository) AppendLedger(ctx context.Context, entry *domain.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO permission_ledger (id, employee_id, company_id, month, delta, reason, attendance_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		entry.ID, entry.EmployeeID, entry.CompanyID, entry.Month, entry.Delta,
		string(entry.Reason), entry.AttendanceDate, nullable(entry.CreatedBy),
	).Scan(&entry.CreatedAt)
	return mapError(err)
}

// UpdateCachedBalance refreshes employees.remaining_permission_hours unless a later month is cached
func (r *LedgerRepository) UpdateCachedBalance(ctx context.Context, employeeID, month string, balance decimal.Decimal) error {
	query := `
		UPDATE employees SET
			remaining_permission_hours = $2,
			permission_month = $3,
			updated_at = NOW()
		WHERE id = $1 AND (permission_month IS NULL OR permission_month <= $3)
	`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, employeeID, balance, month)
	return err
}

// ListLedgerEntries lists the month's entries in the order they were written
func (r *LedgerRepository) ListLedgerEntries(ctx context.Context, employeeID, month string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, employee_id, company_id, month, delta, reason, attendance_date,
		       created_by, created_at
		FROM permission_ledger
		WHERE employee_id = $1 AND month = $2
		ORDER BY created_at, id
	`
	var rows []struct {
		ID             string          `db:"id"`
		EmployeeID     string          `db:"employee_id"`
		CompanyID      string          `db:"company_id"`
		Month          string          `db:"month"`
		Delta          decimal.Decimal `db:"delta"`
		Reason         string          `db:"reason"`
		AttendanceDate *time.Time      `db:"attendance_date"`
		CreatedBy      *string         `db:"created_by"`
		CreatedAt      time.Time       `db:"created_at"`
	}
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, employeeID, month); err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.LedgerEntry{
			ID:             row.ID,
			EmployeeID:     row.EmployeeID,
			CompanyID:      row.CompanyID,
			Month:          row.Month,
			Delta:          row.Delta,
			Reason:         domain.LedgerReason(row.Reason),
			AttendanceDate: dayPtr(row.AttendanceDate),
			CreatedBy:      deref(row.CreatedBy),
			CreatedAt:      row.CreatedAt,
		}
	}
	return entries, nil
}
