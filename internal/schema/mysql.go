package schema

import (
	"context"
	"database/sql"
)

// MySQLExtractor extracts schema information from information_schema for the
// currently selected database.
type MySQLExtractor struct{}

// NewMySQLExtractor creates a new MySQL extractor.
func NewMySQLExtractor() *MySQLExtractor {
	return &MySQLExtractor{}
}

// Dialect returns the dialect name.
func (e *MySQLExtractor) Dialect() string {
	return "mysql"
}

// ExtractTables reads every user table with its columns and foreign keys.
func (e *MySQLExtractor) ExtractTables(ctx context.Context, db *sql.DB) ([]Table, error) {
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

func (e *MySQLExtractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
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

func (e *MySQLExtractor) extractColumns(
	ctx context.Context,
	db *sql.DB,
	tableName string,
) ([]Column, error) {
	query := `SELECT column_name, data_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column

	for rows.Next() {
		var name, rawTyp, isNullable, columnKey string

		if err := rows.Scan(&name, &rawTyp, &isNullable, &columnKey); err != nil {
			return nil, err
		}

		columns = append(columns, Column{
			Name:       name,
			Type:       MapColumnType(rawTyp),
			RawType:    rawTyp,
			Nullable:   isNullable == "YES",
			PrimaryKey: columnKey == "PRI",
		})
	}

	return columns, rows.Err()
}

func (e *MySQLExtractor) foreignKeysByTable(
	ctx context.Context,
	db *sql.DB,
) (map[string][]ForeignKey, error) {
	query := `SELECT table_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND referenced_table_name IS NOT NULL
		ORDER BY table_name, column_name`

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
