package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hrflow/hrflow-backend/pkg/database"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// The container is shared by every integration test in a package.
var (
	sharedContainer *PostgresContainer
	sharedOwner     *sqlx.DB
	sharedApp       *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite runs repositories against a real PostgreSQL with the attendance schema.
//
// RawDB is the schema owner and sees every row; use it for fixtures and assertions.
// DB connects as the application role, so row level security applies to it as in production.
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
}

// NewIntegrationSuite starts the shared container once per package. Call it from TestMain
// and call TerminateContainer when m.Run returns.
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		containerErr = startShared(ctx)
	})
	if containerErr != nil {
		return nil, containerErr
	}

	return &IntegrationSuite{
		Container: sharedContainer,
		RawDB:     sharedOwner,
		DB:        database.Wrap(sharedApp, logger.Nop()),
		Fixtures:  NewFixtureFactory(sharedOwner),
	}, nil
}

func startShared(ctx context.Context) error {
	container, err := NewPostgresContainer(ctx)
	if err != nil {
		return err
	}
	sharedContainer = container

	if sharedOwner, err = container.Connect(ctx); err != nil {
		return err
	}
	if err := ApplyMigrations(ctx, sharedOwner, AttendanceMigrations()); err != nil {
		return err
	}
	// Grants cover the tables that exist, so the role is prepared after migrating.
	sharedApp, err = container.ConnectApp(ctx, sharedOwner)
	return err
}

// Reset empties every attendance table. Call it at the start of each test.
func (s *IntegrationSuite) Reset(t *testing.T, ctx context.Context) {
	t.Helper()
	query := fmt.Sprintf("TRUNCATE %s CASCADE", strings.Join(attendanceTables, ", "))
	if _, err := s.RawDB.ExecContext(ctx, query); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

// TerminateContainer closes the shared connections and removes the container.
func TerminateContainer(ctx context.Context) {
	for _, db := range []*sqlx.DB{sharedApp, sharedOwner} {
		if db != nil {
			db.Close()
		}
	}
	if sharedContainer != nil {
		sharedContainer.Terminate(ctx)
	}
}
