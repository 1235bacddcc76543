package repository

import (
	"context"

	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/database"
)

// Store is the PostgreSQL implementation of service.Store.
type Store struct {
	*SourceRepository
	*AttendanceRepository
	*LedgerRepository
	db *database.DB
}

var _ service.Store = (*Store)(nil)

// NewStore creates the store over one connection pool
func NewStore(db *database.DB) *Store {
	return &Store{
		SourceRepository:     NewSourceRepository(db),
		AttendanceRepository: NewAttendanceRepository(db),
		LedgerRepository:     NewLedgerRepository(db),
		db:                   db,
	}
}

// WithinCompany runs fn in one transaction scoped to the company. Every repository call made
// with the context handed to fn joins that transaction.
func (s *Store) WithinCompany(ctx context.Context, companyID string, fn func(context.Context) error) error {
	return s.db.WithCompanyScope(ctx, companyID, fn)
}
