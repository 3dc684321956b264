package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

// Driver normalizes a configured driver name; "postgres" selects pgx.
func Driver(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", DriverPgx:
		return DriverPgx
	case "sqlite", "sqlite3":
		return DriverSQLite
	}
	return name
}

// Init connects and pings the database. For SQLite the directory holding the
// database file is created first.
func Init(driver, connection string) (*sqlx.DB, error) {
	driver = Driver(driver)

	switch driver {
	case DriverSQLite:
		err := ensureSQLiteDir(connection)
		if err != nil {
			return nil, err
		}
	case DriverPgx:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected", "driver", driver)
	return db, nil
}

// ensureSQLiteDir creates the parent directory of a SQLite DSN such as
// "file:./data/feedback.db?_pragma=...".
func ensureSQLiteDir(connection string) error {
	path := strings.TrimPrefix(connection, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
