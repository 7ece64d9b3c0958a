package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Up applies every pending migration.
func Up(db *sql.DB, cfg *postgres.Config) error {
	m, err := buildMigrationsDriver(db, cfg)
	if err != nil {
		return fmt.Errorf("failed to build database driver to run up migrations: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database up migrations: %w", err)
	}

	return nil
}

func Down(db *sql.DB, cfg *postgres.Config) error {
	m, err := buildMigrationsDriver(db, cfg)
	if err != nil {
		return fmt.Errorf("failed to build database driver to run down migrations: %w", err)
	}

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database down migrations: %w", err)
	}

	return nil
}

// Cycle runs every down migration and then every up migration, checking
// that both directions apply cleanly.
func Cycle(db *sql.DB, cfg *postgres.Config) error {
	if err := Up(db, cfg); err != nil {
		return fmt.Errorf("failed to run initial up migrations: %w", err)
	}

	if err := Down(db, cfg); err != nil {
		return fmt.Errorf("failed to run down migrations: %w", err)
	}

	if err := Up(db, cfg); err != nil {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	return nil
}

// Version returns the applied migration version. dirty is set when a
// migration failed part way.
func Version(db *sql.DB, cfg *postgres.Config) (version uint, dirty bool, err error) {
	m, err := buildMigrationsDriver(db, cfg)
	if err != nil {
		return 0, false, fmt.Errorf("failed to build database driver: %w", err)
	}

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}

	return version, dirty, nil
}

func buildMigrationsDriver(db *sql.DB, cfg *postgres.Config) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating database driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error loading migrations source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("error loading migrations instance: %w", err)
	}

	return m, nil
}
