package database

import (
	"strings"

	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or has no specific mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514": // check_violation
		return mapCheckConstraint(pqErr)

	case "23505": // unique_violation
		return errors.Conflict(formatConstraintMessage(pqErr))

	case "23503": // foreign_key_violation
		return errors.BadRequest("referenced record does not exist")

	case "23502": // not_null_violation
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"attendance_status": "must be a known attendance status",
		})

	case strings.Contains(constraint, "hours_non_negative"):
		return errors.Validation(map[string]string{
			"hours": "must not be negative",
		})

	case strings.Contains(constraint, "reason_valid"):
		return errors.Validation(map[string]string{
			"reason": "must be one of: grant, consume, release",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "attendance_employee_date"):
		return "attendance for this employee and date already exists"
	case strings.Contains(constraint, "permissions_employee_date"):
		return "a permission for this employee and date already exists"
	default:
		return "a record with these values already exists"
	}
}
