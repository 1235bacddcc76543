package service

import (
	"context"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/shopspring/decimal"
)

// SourceStore reads the upstream data of a run. Every list is fetched once per company.
type SourceStore interface {
	GetCompany(ctx context.Context, id string) (*domain.Company, error)
	ListActiveCompanies(ctx context.Context) ([]domain.Company, error)
	// ListActiveEmployees returns the company's active employees, or only employeeID when set.
	ListActiveEmployees(ctx context.Context, companyID, employeeID string) ([]domain.Employee, error)
	ListShiftTypes(ctx context.Context, companyID string) ([]domain.ShiftType, error)
	ListActiveAssignments(ctx context.Context, employeeIDs []string, from, to time.Time) ([]domain.ShiftAssignment, error)
	ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]domain.Holiday, error)
	ListApprovedLeaves(ctx context.Context, employeeIDs []string, from, to time.Time) ([]domain.LeaveRequest, error)
	// ListPunches returns punches with from <= punch_time < to.
	ListPunches(ctx context.Context, employeeIDs []string, from, to time.Time) ([]domain.Punch, error)
}

// MonthBalance is the derived ledger state of one employee month.
type MonthBalance struct {
	Balance  decimal.Decimal
	HasGrant bool
}

// DayStore holds the writes of one employee day. Calls made with the context handed out by
// WithinCompany share its transaction.
type DayStore interface {
	WithinCompany(ctx context.Context, companyID string, fn func(ctx context.Context) error) error

	// GetAttendance returns nil without error when the day has no row yet.
	GetAttendance(ctx context.Context, employeeID string, date time.Time) (*domain.Attendance, error)
	// SaveAttendance updates att by ID when set, otherwise inserts it and assigns the ID.
	SaveAttendance(ctx context.Context, att *domain.Attendance) (created bool, err error)
	UpsertPermission(ctx context.Context, p *domain.Permission) error
	DeletePermission(ctx context.Context, employeeID string, date time.Time) error

	MonthBalance(ctx context.Context, employeeID, month string) (MonthBalance, error)
	AppendLedger(ctx context.Context, entry *domain.LedgerEntry) error
	// UpdateCachedBalance refreshes the employee's balance unless a later month is cached.
	UpdateCachedBalance(ctx context.Context, employeeID, month string, balance decimal.Decimal) error
}

// LedgerStore answers quota queries.
type LedgerStore interface {
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	ListLedgerEntries(ctx context.Context, employeeID, month string) ([]domain.LedgerEntry, error)
	MonthBalance(ctx context.Context, employeeID, month string) (MonthBalance, error)
}

// Store is everything the reconciliation service needs.
type Store interface {
	SourceStore
	DayStore
	LedgerStore
}

// EventPublisher announces run outcomes. Implementations log publish failures themselves.
type EventPublisher interface {
	PublishReconciliationCompleted(ctx context.Context, summary *RunSummary)
	PublishReconciliationSkipped(ctx context.Context, trigger Trigger, date time.Time, reason string)
}

// Observer receives run and day outcomes for metrics.
type Observer interface {
	RunFinished(trigger string, outcome string, elapsed time.Duration)
	RunSkipped(trigger string)
	DayRecorded(status string)
	DayFailed()
	PermissionConsumed(hours float64)
}

type noopPublisher struct{}

func (noopPublisher) PublishReconciliationCompleted(context.Context, *RunSummary) {}
func (noopPublisher) PublishReconciliationSkipped(context.Context, Trigger, time.Time, string) {
}

type noopObserver struct{}

func (noopObserver) RunFinished(string, string, time.Duration) {}
func (noopObserver) RunSkipped(string)                         {}
func (noopObserver) DayRecorded(string)                        {}
func (noopObserver) DayFailed()                                {}
func (noopObserver) PermissionConsumed(float64)                {}
