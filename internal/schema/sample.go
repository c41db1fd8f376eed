package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/logging"
)

const maxSampleValueLen = 40

// Sampler reads a few representative rows per table. Samples enrich the
// schema description handed to the generation backend so it can see real
// value shapes, not just column types.
type Sampler struct {
	db      *sql.DB
	logger  *logging.Logger
	rowsPer int
}

// NewSampler creates a sampler that fetches rowsPerTable rows per table.
func NewSampler(db *sql.DB, logger *logging.Logger, rowsPerTable int) *Sampler {
	if rowsPerTable <= 0 {
		rowsPerTable = 3
	}

	return &Sampler{
		db:      db,
		logger:  logger,
		rowsPer: rowsPerTable,
	}
}

// SampleRows fetches up to the configured number of rows from a table. The
// table name must come from the schema model, never from user input.
func (s *Sampler) SampleRows(
	ctx context.Context,
	tableName string,
) ([]map[string]interface{}, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", tableName, s.rowsPer)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to sample rows from %s", tableName)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read sample columns")
	}

	var result []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan sample row")
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeSampleValue(values[i])
		}

		result = append(result, row)
	}

	return result, rows.Err()
}

// DescribeWithSamples renders the model plus a sample line per table.
// Sampling failures are logged and skipped so one unreadable table cannot
// break prompt construction.
func (s *Sampler) DescribeWithSamples(ctx context.Context, model *Model) string {
	var b strings.Builder

	b.WriteString(model.Describe())

	for _, table := range model.Tables() {
		samples, err := s.SampleRows(ctx, table.Name)
		if err != nil {
			s.logger.WithField("table", table.Name).WithError(err).
				Debug("Skipping samples for table")

			continue
		}

		if len(samples) == 0 {
			continue
		}

		b.WriteString(fmt.Sprintf("\n-- %s samples:\n", table.Name))

		for _, row := range samples {
			b.WriteString("--   ")
			b.WriteString(formatSampleRow(table.Columns, row))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// formatSampleRow renders values in column declaration order.
func formatSampleRow(columns []Column, row map[string]interface{}) string {
	parts := make([]string, 0, len(columns))

	for _, col := range columns {
		value, ok := row[col.Name]
		if !ok {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s=%v", col.Name, value))
	}

	return strings.Join(parts, ", ")
}

func normalizeSampleValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return truncateSample(string(v))
	case string:
		return truncateSample(v)
	default:
		return v
	}
}

func truncateSample(s string) string {
	if len(s) <= maxSampleValueLen {
		return s
	}

	return s[:maxSampleValueLen] + "..."
}
