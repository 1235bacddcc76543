package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrflow/hrflow-backend/pkg/errors"
)

const companyID = "11111111-1111-1111-1111-111111111111"

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return Wrap(sqlx.NewDb(raw, "postgres"), logger.Nop()), mock
}

func expectScope(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL app.current_company = '" + companyID + "'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestWithCompanyScope_CommitsAndBindsTx(t *testing.T) {
	db, mock := newMock(t)
	expectScope(mock)
	mock.ExpectExec("UPDATE attendance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.WithCompanyScope(context.Background(), companyID, func(ctx context.Context) error {
		_, isTx := db.Conn(ctx).(*sqlx.Tx)
		assert.True(t, isTx)
		_, err := db.Conn(ctx).ExecContext(ctx, "UPDATE attendance SET remarks = ''")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithCompanyScope_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	expectScope(mock)
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := db.WithCompanyScope(context.Background(), companyID, func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithCompanyScope_RejectsMalformedCompany(t *testing.T) {
	db, mock := newMock(t)

	called := false
	err := db.WithCompanyScope(context.Background(), "1'; DROP TABLE attendance; --", func(context.Context) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_DefaultsToPool(t *testing.T) {
	db, _ := newMock(t)
	_, isDB := db.Conn(context.Background()).(*sqlx.DB)
	assert.True(t, isDB)
}

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unique attendance", &pq.Error{Code: "23505", Constraint: "attendance_employee_date"}, "CONFLICT"},
		{"negative hours", &pq.Error{Code: "23514", Constraint: "attendance_hours_non_negative"}, "VALIDATION_ERROR"},
		{"bad ledger reason", &pq.Error{Code: "23514", Constraint: "permission_ledger_reason_valid"}, "VALIDATION_ERROR"},
		{"missing employee", &pq.Error{Code: "23503"}, "BAD_REQUEST"},
		{"not null", &pq.Error{Code: "23502", Column: "status"}, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapPQError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	assert.Nil(t, MapPQError(errors.New("plain")))
	assert.Nil(t, MapPQError(&pq.Error{Code: "40001"}))

	unique := MapPQError(&pq.Error{Code: "23505", Constraint: "permissions_employee_date"})
	assert.True(t, apperrors.Is(unique, apperrors.ErrConflict))
}
