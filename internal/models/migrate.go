package models

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema for the given driver ("pgx" or "sqlite3").
// The migrate instance is not closed because closing it would close db.
func Migrate(db *sql.DB, driver string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+dialectDir(driver))
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case "pgx":
		target, err := migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			return fmt.Errorf("failed to prepare postgres migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "pgx5", target)
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
	case "sqlite3":
		target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to prepare sqlite migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", target)
		if err != nil {
			return fmt.Errorf("failed to create migrator: %w", err)
		}
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func dialectDir(driver string) string {
	if driver == "pgx" {
		return "postgres"
	}
	return driver
}
