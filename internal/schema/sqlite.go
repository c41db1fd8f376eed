package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteExtractor extracts schema information using SQLite PRAGMA calls.
type SQLiteExtractor struct{}

// NewSQLiteExtractor creates a new SQLite extractor.
func NewSQLiteExtractor() *SQLiteExtractor {
	return &SQLiteExtractor{}
}

// Dialect returns the dialect name.
func (e *SQLiteExtractor) Dialect() string {
	return "sqlite"
}

// ExtractTables reads every user table with its columns and foreign keys.
func (e *SQLiteExtractor) ExtractTables(ctx context.Context, db *sql.DB) ([]Table, error) {
	names, err := e.tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))

	for _, name := range names {
		columns, err := e.extractColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}

		foreignKeys, err := e.extractForeignKeys(ctx, db, name)
		if err != nil {
			return nil, err
		}

		tables = append(tables, Table{
			Name:        name,
			Columns:     columns,
			ForeignKeys: foreignKeys,
		})
	}

	return tables, nil
}

func (e *SQLiteExtractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

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

func (e *SQLiteExtractor) extractColumns(
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
		var cid, notNull, pk int

		var name, rawTyp string

		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &rawTyp, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		columns = append(columns, Column{
			Name:       name,
			Type:       MapColumnType(rawTyp),
			RawType:    rawTyp,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		})
	}

	return columns, rows.Err()
}

func (e *SQLiteExtractor) extractForeignKeys(
	ctx context.Context,
	db *sql.DB,
	tableName string,
) ([]ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%q)", tableName)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []ForeignKey

	for rows.Next() {
		var id, seq int

		var refTable, from, onUpdate, onDelete, match string

		var to sql.NullString

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		// Without an explicit target column the reference is to the
		// primary key; id is the SQLite convention.
		refColumn := to.String
		if !to.Valid || refColumn == "" {
			refColumn = "id"
		}

		foreignKeys = append(foreignKeys, ForeignKey{
			Column:    from,
			RefTable:  refTable,
			RefColumn: refColumn,
		})
	}

	return foreignKeys, rows.Err()
}
