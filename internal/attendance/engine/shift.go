// Package engine holds the pure decision logic of attendance reconciliation. Nothing here
// performs I/O; the service feeds it preloaded data and persists what it returns.
package engine

import (
	"sort"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
)

// ResolvedShift is the shift that governs one employee day. Both fields are nil when the
// employee has no applicable assignment and no default shift.
type ResolvedShift struct {
	Assignment *domain.ShiftAssignment
	ShiftType  *domain.ShiftType
}

// ResolveShift picks the assignment that applies to date. Among in-bounds assignments whose
// recurrence matches, the most recently updated wins, then the most recently created, then
// the highest ID so the choice never depends on input order. Assignments pointing at an
// unknown shift type are ignored. Without a match the employee's default shift type is used.
func ResolveShift(emp domain.Employee, date time.Time, assignments []domain.ShiftAssignment, shiftTypes map[string]domain.ShiftType) ResolvedShift {
	var candidates []domain.ShiftAssignment
	for _, a := range assignments {
		if a.EmployeeID != emp.ID {
			continue
		}
		if a.Status != "" && a.Status != domain.AssignmentStatusActive {
			continue
		}
		if _, ok := shiftTypes[a.ShiftTypeID]; !ok {
			continue
		}
		if a.Covers(date) && a.Recurrence.Matches(date) {
			candidates = append(candidates, a)
		}
	}

	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
		selected := candidates[0]
		st := shiftTypes[selected.ShiftTypeID]
		return ResolvedShift{Assignment: &selected, ShiftType: &st}
	}

	if emp.ShiftTypeID != nil {
		if st, ok := shiftTypes[*emp.ShiftTypeID]; ok {
			return ResolvedShift{ShiftType: &st}
		}
	}
	return ResolvedShift{}
}
