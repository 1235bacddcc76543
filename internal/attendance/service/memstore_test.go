package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type cachedBalance struct {
	balance decimal.Decimal
	month   string
}

// memStore is an in-memory Store. WithinCompany rolls back every write of a failed callback.
type memStore struct {
	companies   map[string]domain.Company
	employees   []domain.Employee
	shiftTypes  []domain.ShiftType
	assignments []domain.ShiftAssignment
	holidays    []domain.Holiday
	leaves      []domain.LeaveRequest
	punches     []domain.Punch

	attendance  map[string]domain.Attendance
	permissions map[string]domain.Permission
	ledger      []domain.LedgerEntry
	cached      map[string]cachedBalance

	failSaveOn map[string]bool
	onSave     func()
}

func newMemStore() *memStore {
	return &memStore{
		companies:   make(map[string]domain.Company),
		attendance:  make(map[string]domain.Attendance),
		permissions: make(map[string]domain.Permission),
		cached:      make(map[string]cachedBalance),
		failSaveOn:  make(map[string]bool),
	}
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + domain.DateKey(date)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *memStore) GetCompany(_ context.Context, id string) (*domain.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, errors.NotFound("company")
	}
	return &c, nil
}

func (m *memStore) ListActiveCompanies(context.Context) ([]domain.Company, error) {
	out := make([]domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListActiveEmployees(_ context.Context, companyID, employeeID string) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID && e.Status == domain.EmployeeStatusActive && (employeeID == "" || e.ID == employeeID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ListShiftTypes(_ context.Context, companyID string) ([]domain.ShiftType, error) {
	var out []domain.ShiftType
	for _, st := range m.shiftTypes {
		if st.CompanyID == companyID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveAssignments(_ context.Context, ids []string, _, _ time.Time) ([]domain.ShiftAssignment, error) {
	var out []domain.ShiftAssignment
	for _, a := range m.assignments {
		if contains(ids, a.EmployeeID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListHolidays(_ context.Context, companyID string, from, to time.Time) ([]domain.Holiday, error) {
	var out []domain.Holiday
	for _, h := range m.holidays {
		if h.CompanyID == companyID && !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) ListApprovedLeaves(_ context.Context, ids []string, _, _ time.Time) ([]domain.LeaveRequest, error) {
	var out []domain.LeaveRequest
	for _, l := range m.leaves {
		if contains(ids, l.EmployeeID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListPunches(_ context.Context, ids []string, from, to time.Time) ([]domain.Punch, error) {
	var out []domain.Punch
	for _, p := range m.punches {
		if contains(ids, p.EmployeeID) && !p.PunchTime.Before(from) && p.PunchTime.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) WithinCompany(ctx context.Context, _ string, fn func(context.Context) error) error {
	attendance := make(map[string]domain.Attendance, len(m.attendance))
	for k, v := range m.attendance {
		attendance[k] = v
	}
	permissions := make(map[string]domain.Permission, len(m.permissions))
	for k, v := range m.permissions {
		permissions[k] = v
	}
	cached := make(map[string]cachedBalance, len(m.cached))
	for k, v := range m.cached {
		cached[k] = v
	}
	ledgerLen := len(m.ledger)

	if err := fn(ctx); err != nil {
		m.attendance, m.permissions, m.cached = attendance, permissions, cached
		m.ledger = m.ledger[:ledgerLen]
		return err
	}
	return nil
}

func (m *memStore) GetAttendance(_ context.Context, employeeID string, date time.Time) (*domain.Attendance, error) {
	att, ok := m.attendance[dayKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &att, nil
}

func (m *memStore) SaveAttendance(_ context.Context, att *domain.Attendance) (bool, error) {
	if m.onSave != nil {
		m.onSave()
	}
	key := dayKey(att.EmployeeID, att.AttendanceDate)
	if m.failSaveOn[key] {
		return false, fmt.Errorf("disk full")
	}
	created := att.ID == ""
	if created {
		att.ID = uuid.New().String()
	}
	m.attendance[key] = *att
	return created, nil
}

func (m *memStore) UpsertPermission(_ context.Context, p *domain.Permission) error {
	key := dayKey(p.EmployeeID, p.PermissionDate)
	if existing, ok := m.permissions[key]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New().String()
	}
	m.permissions[key] = *p
	return nil
}

func (m *memStore) DeletePermission(_ context.Context, employeeID string, date time.Time) error {
	delete(m.permissions, dayKey(employeeID, date))
	return nil
}

func (m *memStore) MonthBalance(_ context.Context, employeeID, month string) (MonthBalance, error) {
	mb := MonthBalance{Balance: decimal.Zero}
	for _, e := range m.ledger {
		if e.EmployeeID == employeeID && e.Month == month {
			mb.Balance = mb.Balance.Add(e.Delta)
			if e.Reason == domain.LedgerGrant {
				mb.HasGrant = true
			}
		}
	}
	return mb, nil
}

func (m *memStore) AppendLedger(_ context.Context, entry *domain.LedgerEntry) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	m.ledger = append(m.ledger, *entry)
	return nil
}

func (m *memStore) UpdateCachedBalance(_ context.Context, employeeID, month string, balance decimal.Decimal) error {
	if current, ok := m.cached[employeeID]; ok && current.month > month {
		return nil
	}
	m.cached[employeeID] = cachedBalance{balance: balance, month: month}
	return nil
}

func (m *memStore) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	for _, e := range m.employees {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, errors.NotFound("employee")
}

func (m *memStore) ListLedgerEntries(_ context.Context, employeeID, month string) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range m.ledger {
		if e.EmployeeID == employeeID && e.Month == month {
			out = append(out, e)
		}
	}
	return out, nil
}

// usedInMonth sums permission hours recorded on attendance rows of month.
func (m *memStore) usedInMonth(employeeID, month string) decimal.Decimal {
	total := decimal.Zero
	for _, att := range m.attendance {
		if att.EmployeeID == employeeID && domain.MonthOf(att.AttendanceDate) == month {
			total = total.Add(att.PreviousPermissionUsed())
		}
	}
	return total
}
