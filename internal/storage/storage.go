package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"  // PostgreSQL driver
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	_ "github.com/mattn/go-sqlite3"     // SQLite driver

	"github.com/kyleking/asksql/internal/config"
	"github.com/kyleking/asksql/internal/errors"
)

// DetectDriver maps a DSN onto a registered database/sql driver name and the
// DSN string that driver expects. Postgres keeps its URL form; the scheme
// prefixes of the other drivers are stripped.
func DetectDriver(dsn string) (driver, driverDSN string, err error) {
	trimmed := strings.TrimSpace(dsn)

	switch {
	case trimmed == "":
		return "", "", errors.NewConfigError("database DSN is empty", "database.dsn")
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return "pgx", trimmed, nil
	case strings.HasPrefix(trimmed, "mysql://"):
		return "mysql", strings.TrimPrefix(trimmed, "mysql://"), nil
	case strings.HasPrefix(trimmed, "duckdb:"):
		return "duckdb", strings.TrimPrefix(trimmed, "duckdb:"), nil
	case strings.HasPrefix(trimmed, "sqlite3:"):
		return "sqlite3", strings.TrimPrefix(trimmed, "sqlite3:"), nil
	case strings.HasPrefix(trimmed, "sqlite:"):
		return "sqlite3", strings.TrimPrefix(trimmed, "sqlite:"), nil
	case trimmed == ":memory:", strings.Contains(trimmed, "mode=memory"):
		return "sqlite3", trimmed, nil
	case strings.HasSuffix(trimmed, ".duckdb"):
		return "duckdb", trimmed, nil
	case strings.HasSuffix(trimmed, ".db"),
		strings.HasSuffix(trimmed, ".sqlite"),
		strings.HasSuffix(trimmed, ".sqlite3"):
		return "sqlite3", trimmed, nil
	default:
		return "", "", errors.NewConfigError(
			"cannot infer database driver from DSN: "+trimmed, "database.dsn").
			WithSuggestion("Use a scheme prefix (postgres://, mysql://, duckdb:, sqlite:) or a recognized file extension")
	}
}

// Open connects to the database named by the configuration, tunes the
// connection pool, and verifies the connection with a ping. File-backed
// databases get their parent directory created on demand.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver, dsn, err := DetectDriver(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if driver == "duckdb" || driver == "sqlite3" {
		dsn = expandPath(dsn)

		if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, errors.Wrap(err, errors.ErrTypeDatabase,
					"failed to create database directory")
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to open %s database", driver)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(parseDurationOr(cfg.ConnMaxLifetime, 30*time.Minute))
	db.SetConnMaxIdleTime(parseDurationOr(cfg.ConnMaxIdleTime, 5*time.Minute))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to ping database").
			WithSuggestion("Check that the database is running and the DSN is correct")
	}

	return db, nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}
