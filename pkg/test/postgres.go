package test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/charlieegan3/metadata-console/pkg/database/migration"
)

// MigrationsTable matches the default migrations table used by the
// server configuration.
const MigrationsTable = "schema_migrations_metadata_console"

const (
	postgresImage = "postgres:16.2"
	postgresPort  = "5432/tcp"
	historyDB     = "metadata_console"
	historyUser   = "metadata_console"
)

// InitPostgres starts a database for the edit history. Every migration is
// applied, rolled back and applied again before it is returned.
func InitPostgres(ctx context.Context, t *testing.T) (*sql.DB, func() error, error) {
	svc, err := startService(ctx, t, testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_DB":               historyDB,
			"POSTGRES_USER":             historyUser,
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		// the server restarts once after running the init scripts
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}, postgresPort)
	if err != nil {
		return nil, nil, err
	}

	dsn := fmt.Sprintf("postgresql://%s@%s/%s?sslmode=disable", historyUser, svc.endpoint, historyDB)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, func() error { return svc.terminate(ctx) }, fmt.Errorf("could not open database connection: %w", err)
	}

	cleanup := func() error {
		_ = db.Close()
		return svc.terminate(ctx)
	}

	if err := retry(t, "postgres", 5, time.Second, db.Ping); err != nil {
		return nil, cleanup, err
	}

	err = migration.Cycle(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, cleanup, fmt.Errorf("could not cycle migrations: %w", err)
	}

	return db, cleanup, nil
}
