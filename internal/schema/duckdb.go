package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// DuckDBExtractor extracts schema information from DuckDB. Columns come from
// the SQLite-compatible PRAGMA calls DuckDB supports; foreign keys come from
// duckdb_constraints(), whose column lists only surface as constraint text.
type DuckDBExtractor struct{}

// foreignKeyPattern matches the constraint text duckdb_constraints() reports,
// e.g. FOREIGN KEY (user_id) REFERENCES users(id).
var foreignKeyPattern = regexp.MustCompile(
	`(?i)FOREIGN KEY\s*\(([^)]+)\)\s*REFERENCES\s+"?(\w+)"?\s*\(([^)]+)\)`,
)

// NewDuckDBExtractor creates a new DuckDB extractor.
func NewDuckDBExtractor() *DuckDBExtractor {
	return &DuckDBExtractor{}
}

// Dialect returns the dialect name.
func (e *DuckDBExtractor) Dialect() string {
	return "duckdb"
}

// ExtractTables reads every user table with its columns and foreign keys.
func (e *DuckDBExtractor) ExtractTables(ctx context.Context, db *sql.DB) ([]Table, error) {
	names, err := e.tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	foreignKeys, err := e.foreignKeysByTable(ctx, db)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))

	for _, name := range names {
		columns, err := e.extractColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}

		tables = append(tables, Table{
			Name:        name,
			Columns:     columns,
			ForeignKeys: foreignKeys[name],
		})
	}

	return tables, nil
}

func (e *DuckDBExtractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'main' AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (e *DuckDBExtractor) extractColumns(
	ctx context.Context,
	db *sql.DB,
	tableName string,
) ([]Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%q)", tableName)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column

	for rows.Next() {
		var cid int

		var name, rawTyp string

		var notNull, pk bool

		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &rawTyp, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		columns = append(columns, Column{
			Name:       name,
			Type:       MapColumnType(rawTyp),
			RawType:    rawTyp,
			Nullable:   !notNull,
			PrimaryKey: pk,
		})
	}

	return columns, rows.Err()
}

func (e *DuckDBExtractor) foreignKeysByTable(
	ctx context.Context,
	db *sql.DB,
) (map[string][]ForeignKey, error) {
	query := `SELECT table_name, constraint_text FROM duckdb_constraints()
		WHERE constraint_type = 'FOREIGN KEY'
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]ForeignKey)

	for rows.Next() {
		var tableName, constraintText string

		if err := rows.Scan(&tableName, &constraintText); err != nil {
			return nil, err
		}

		fk, ok := parseForeignKeyText(constraintText)
		if !ok {
			continue
		}

		result[tableName] = append(result[tableName], fk)
	}

	return result, rows.Err()
}

// parseForeignKeyText extracts a single-column foreign key from constraint
// text. Composite keys keep only the first column pair, which is all the
// join planner uses.
func parseForeignKeyText(text string) (ForeignKey, bool) {
	match := foreignKeyPattern.FindStringSubmatch(text)
	if match == nil {
		return ForeignKey{}, false
	}

	column := firstIdentifier(match[1])
	refColumn := firstIdentifier(match[3])

	if column == "" || refColumn == "" {
		return ForeignKey{}, false
	}

	return ForeignKey{
		Column:    column,
		RefTable:  match[2],
		RefColumn: refColumn,
	}, true
}

func firstIdentifier(list string) string {
	first := strings.SplitN(list, ",", 2)[0]
	return strings.Trim(strings.TrimSpace(first), `"`)
}
