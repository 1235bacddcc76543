package service

import (
	"context"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// LedgerStatement is an employee's quota movements for one month.
type LedgerStatement struct {
	EmployeeID string               `json:"employee_id"`
	Month      string               `json:"month"`
	Balance    decimal.Decimal      `json:"balance"`
	Opened     bool                 `json:"opened"`
	Used       decimal.Decimal      `json:"used"`
	Entries    []domain.LedgerEntry `json:"entries"`
}

// PermissionLedger returns the ledger of month (YYYY-MM) for an employee. An empty month
// defaults to the current one.
func (s *ReconciliationService) PermissionLedger(ctx context.Context, employeeID, month string) (*LedgerStatement, error) {
	if employeeID == "" {
		return nil, errors.InvalidInput("employee_id is required")
	}
	if month == "" {
		month = domain.MonthOf(s.now())
	}
	if _, err := time.Parse(domain.MonthLayout, month); err != nil {
		return nil, errors.InvalidInput("month must be in YYYY-MM format")
	}

	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	// The ledger is only visible inside the employee's company scope.
	var (
		mb      MonthBalance
		entries []domain.LedgerEntry
	)
	err = s.store.WithinCompany(ctx, emp.CompanyID, func(ctx context.Context) error {
		var err error
		if mb, err = s.store.MonthBalance(ctx, employeeID, month); err != nil {
			return err
		}
		entries, err = s.store.ListLedgerEntries(ctx, employeeID, month)
		return err
	})
	if err != nil {
		return nil, err
	}

	used := decimal.Zero
	for _, e := range entries {
		if e.Reason != domain.LedgerGrant {
			used = used.Sub(e.Delta)
		}
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	return &LedgerStatement{
		EmployeeID: employeeID,
		Month:      month,
		Balance:    mb.Balance,
		Opened:     mb.HasGrant,
		Used:       used,
		Entries:    entries,
	}, nil
}
