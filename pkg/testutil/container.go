// Package testutil provides testing utilities for HRFlow backend services.
// It includes testcontainers for PostgreSQL, sqlmock helpers, HTTP helpers
// and fixtures for the attendance schema.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:15-alpine"

	// The owner bypasses row level security, so fixtures and assertions use it.
	ownerUser     = "hrflow_owner"
	ownerPassword = "owner"

	// The service connects as a plain role so company policies apply to it.
	appUser     = "hrflow_app"
	appPassword = "app"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// NewPostgresContainer starts PostgreSQL with the owner role and an empty hrflow_test database.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(postgresImage),
		postgres.WithDatabase("hrflow_test"),
		postgres.WithUsername(ownerUser),
		postgres.WithPassword(ownerPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: container, DSN: dsn}, nil
}

// Connect opens an owner connection.
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	return connect(ctx, c.DSN)
}

// ConnectApp creates the application role if needed, grants it the current tables and
// opens a connection as that role.
func (c *PostgresContainer) ConnectApp(ctx context.Context, owner *sqlx.DB) (*sqlx.DB, error) {
	grants := []string{
		fmt.Sprintf(`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = '%s') THEN
				CREATE ROLE %s LOGIN PASSWORD '%s';
			END IF;
		END $$`, appUser, appUser, appPassword),
		"GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO " + appUser,
	}
	if err := ApplyMigrations(ctx, owner, grants); err != nil {
		return nil, fmt.Errorf("failed to prepare application role: %w", err)
	}

	u, err := url.Parse(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse container DSN: %w", err)
	}
	u.User = url.UserPassword(appUser, appPassword)
	return connect(ctx, u.String())
}

// ApplyMigrations executes the statements in order.
func ApplyMigrations(ctx context.Context, db *sqlx.DB, migrations []string) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

func connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}
