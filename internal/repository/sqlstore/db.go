// Package sqlstore implements the persistence ports with sqlx over either
// PostgreSQL (pgx) or an embedded SQLite file (modernc).
package sqlstore

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"despesify/db"
	"despesify/internal/config"
)

// NewDB creates a connection pool for the configured driver.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	conn, err := sqlx.Connect(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps
		// ":memory:" databases alive across calls.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		return conn, nil
	}
	conn.SetMaxOpenConns(cfg.MaxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdle)
	return conn, nil
}

// Migrate applies all pending embedded migrations to conn.
func Migrate(conn *sqlx.DB) error {
	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sqlstore.Migrate: source: %w", err)
	}

	var driver database.Driver
	switch conn.DriverName() {
	case "sqlite":
		driver, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		driver, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("sqlstore.Migrate: driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, conn.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("sqlstore.Migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore.Migrate: up: %w", err)
	}
	return nil
}
