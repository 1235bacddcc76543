package testutil

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hrflow/hrflow-backend/pkg/database"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// MockDB pairs a sqlmock handle with its expectations. Queries are matched literally.
//
//	mockDB := testutil.NewMockDB(t)
//	defer mockDB.Close()
//
//	mockDB.ExpectQuery("SELECT id, name").WillReturnRows(testutil.MockRows("id", "name").AddRow(...))
//	repo := repository.NewSourceRepository(mockDB.Database())
type MockDB struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a mock postgres handle or fails the test.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &MockDB{DB: sqlx.NewDb(raw, "postgres"), Mock: mock}
}

// Database wraps the mock in the application's DB type.
func (m *MockDB) Database() *database.DB {
	return database.Wrap(m.DB, logger.Nop())
}

func (m *MockDB) Close() error {
	return m.DB.Close()
}

func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

func (m *MockDB) ExpectCommit() *sqlmock.ExpectedCommit {
	return m.Mock.ExpectCommit()
}

func (m *MockDB) ExpectRollback() *sqlmock.ExpectedRollback {
	return m.Mock.ExpectRollback()
}

// ExpectCompanyScope expects what database.WithCompanyScope issues before running its
// callback: BEGIN and the SET LOCAL of the company. Add the commit or rollback yourself.
func (m *MockDB) ExpectCompanyScope(companyID string) {
	m.Mock.ExpectBegin()
	m.Mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("SET LOCAL app.current_company = '%s'", companyID))).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

// ExpectationsWereMet reports unmet expectations as a test error.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	if err := m.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// MockRows starts a result set with the given columns.
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// AnyUUID matches an id generated by the repository.
type AnyUUID struct{}

func (AnyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && uuidPattern.MatchString(s)
}

// DecimalArg matches a bound decimal by its string form, e.g. DecimalArg("2").
type DecimalArg string

func (d DecimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && s == string(d)
}
