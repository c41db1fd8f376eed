package schema

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/logging"
)

// Extractor reads table definitions out of a live database. Implementations
// are dialect-specific; all of them return tables in a deterministic order.
type Extractor interface {
	// Dialect returns the name of the dialect the extractor speaks.
	Dialect() string

	// ExtractTables reads every user table with its columns and foreign keys.
	ExtractTables(ctx context.Context, db *sql.DB) ([]Table, error)
}

// NewExtractor creates an extractor for the given driver name.
func NewExtractor(driver string) (Extractor, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return NewSQLiteExtractor(), nil
	case "postgres", "postgresql", "pgx":
		return NewPostgresExtractor(), nil
	case "mysql":
		return NewMySQLExtractor(), nil
	case "duckdb":
		return NewDuckDBExtractor(), nil
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unsupported database driver: %s", driver)
	}
}

// Build extracts the schema and assembles an immutable model. Extraction
// failures are fatal; structural issues inside the schema (dangling foreign
// keys, duplicate names) become model warnings and are logged exactly once
// here.
func Build(
	ctx context.Context,
	db *sql.DB,
	extractor Extractor,
	logger *logging.Logger,
) (*Model, error) {
	tables, err := extractor.ExtractTables(ctx, db)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeExtraction,
			"failed to extract %s schema", extractor.Dialect())
	}

	if len(tables) == 0 {
		return nil, errors.Newf(errors.ErrTypeExtraction,
			"no user tables found in %s database", extractor.Dialect()).
			WithSuggestion("check that the DSN points at the right database").
			WithSuggestion("run 'asksql demo' to seed a sample database")
	}

	model := NewModel(tables)

	for _, warning := range model.Warnings() {
		logger.WithField("dialect", extractor.Dialect()).Warn(warning)
	}

	logger.WithFields(map[string]interface{}{
		"dialect": extractor.Dialect(),
		"tables":  len(model.Tables()),
	}).Debug("Schema model built")

	return model, nil
}
