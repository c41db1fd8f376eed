package schema

import (
	"context"
	"database/sql"
)

// PostgresExtractor extracts schema information from information_schema.
// Only the current schema is inspected, which matches the single-database
// scope of the engine.
type PostgresExtractor struct{}

// NewPostgresExtractor creates a new PostgreSQL extractor.
func NewPostgresExtractor() *PostgresExtractor {
	return &PostgresExtractor{}
}

// Dialect returns the dialect name.
func (e *PostgresExtractor) Dialect() string {
	return "postgres"
}

// ExtractTables reads every user table with its columns and foreign keys.
func (e *PostgresExtractor) ExtractTables(ctx context.Context, db *sql.DB) ([]Table, error) {
	names, err := e.tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	primaryKeys, err := e.primaryKeyColumns(ctx, db)
	if err != nil {
		return nil, err
	}

	foreignKeys, err := e.foreignKeysByTable(ctx, db)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))

	for _, name := range names {
		columns, err := e.extractColumns(ctx, db, name, primaryKeys[name])
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

func (e *PostgresExtractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
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

func (e *PostgresExtractor) extractColumns(
	ctx context.Context,
	db *sql.DB,
	tableName string,
	pkColumns map[string]bool,
) ([]Column, error) {
	query := `SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column

	for rows.Next() {
		var name, rawTyp, isNullable string

		if err := rows.Scan(&name, &rawTyp, &isNullable); err != nil {
			return nil, err
		}

		columns = append(columns, Column{
			Name:       name,
			Type:       MapColumnType(rawTyp),
			RawType:    rawTyp,
			Nullable:   isNullable == "YES",
			PrimaryKey: pkColumns[name],
		})
	}

	return columns, rows.Err()
}

// primaryKeyColumns returns table name to set of primary key column names.
func (e *PostgresExtractor) primaryKeyColumns(
	ctx context.Context,
	db *sql.DB,
) (map[string]map[string]bool, error) {
	query := `SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = current_schema()
			AND tc.constraint_type = 'PRIMARY KEY'`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]map[string]bool)

	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return nil, err
		}

		if result[tableName] == nil {
			result[tableName] = make(map[string]bool)
		}

		result[tableName][columnName] = true
	}

	return result, rows.Err()
}

func (e *PostgresExtractor) foreignKeysByTable(
	ctx context.Context,
	db *sql.DB,
) (map[string][]ForeignKey, error) {
	query := `SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.table_schema = current_schema()
			AND tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.table_name, kcu.column_name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]ForeignKey)

	for rows.Next() {
		var tableName, column, refTable, refColumn string

		if err := rows.Scan(&tableName, &column, &refTable, &refColumn); err != nil {
			return nil, err
		}

		result[tableName] = append(result[tableName], ForeignKey{
			Column:    column,
			RefTable:  refTable,
			RefColumn: refColumn,
		})
	}

	return result, rows.Err()
}
