package schema

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/logging"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewExtractor(t *testing.T) {
	tests := []struct {
		driver  string
		dialect string
		wantErr bool
	}{
		{driver: "sqlite", dialect: "sqlite"},
		{driver: "sqlite3", dialect: "sqlite"},
		{driver: "postgres", dialect: "postgres"},
		{driver: "pgx", dialect: "postgres"},
		{driver: "MySQL", dialect: "mysql"},
		{driver: "duckdb", dialect: "duckdb"},
		{driver: "oracle", wantErr: true},
		{driver: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			extractor, err := NewExtractor(tt.driver)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.dialect, extractor.Dialect())
		})
	}
}

func TestSQLiteExtractTables(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("orders").
			AddRow("users"))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "user_id", "INTEGER", 1, nil, 0).
			AddRow(2, "total", "NUMERIC(10,2)", 0, nil, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}).
			AddRow(0, 0, "users", "user_id", "id", "NO ACTION", "NO ACTION", "NONE"))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("users")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "name", "TEXT", 0, nil, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("users")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}))

	extractor := NewSQLiteExtractor()
	tables, err := extractor.ExtractTables(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	orders := tables[0]
	assert.Equal(t, "orders", orders.Name)
	require.Len(t, orders.Columns, 3)
	assert.Equal(t, TypeInteger, orders.Columns[0].Type)
	assert.True(t, orders.Columns[0].PrimaryKey)
	assert.False(t, orders.Columns[0].Nullable)
	assert.Equal(t, TypeDecimal, orders.Columns[2].Type)
	assert.True(t, orders.Columns[2].Nullable)

	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, ForeignKey{Column: "user_id", RefTable: "users", RefColumn: "id"},
		orders.ForeignKeys[0])

	users := tables[1]
	assert.Equal(t, "users", users.Name)
	assert.Empty(t, users.ForeignKeys)

	assertSQLMock(t, mock)
}

func TestSQLiteForeignKeyWithoutTargetColumn(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("orders"))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "user_id", "INTEGER", 1, nil, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}).
			AddRow(0, 0, "users", "user_id", nil, "NO ACTION", "NO ACTION", "NONE"))

	extractor := NewSQLiteExtractor()
	tables, err := extractor.ExtractTables(context.Background(), db)
	require.NoError(t, err)

	// Implicit references default to the id convention
	require.Len(t, tables[0].ForeignKeys, 1)
	assert.Equal(t, "id", tables[0].ForeignKeys[0].RefColumn)

	assertSQLMock(t, mock)
}

func TestPostgresExtractTables(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").
			AddRow("users"))

	mock.ExpectQuery(regexp.QuoteMeta("constraint_type = 'PRIMARY KEY'")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name"}).
			AddRow("orders", "id").
			AddRow("users", "id"))

	mock.ExpectQuery(regexp.QuoteMeta("constraint_type = 'FOREIGN KEY'")).
		WillReturnRows(sqlmock.NewRows(
			[]string{"table_name", "column_name", "ref_table", "ref_column"}).
			AddRow("orders", "user_id", "users", "id"))

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "integer", "NO").
			AddRow("user_id", "integer", "NO").
			AddRow("total", "numeric", "YES"))

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "integer", "NO").
			AddRow("email", "character varying", "YES"))

	extractor := NewPostgresExtractor()
	tables, err := extractor.ExtractTables(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	orders := tables[0]
	assert.True(t, orders.Columns[0].PrimaryKey)
	assert.Equal(t, TypeDecimal, orders.Columns[2].Type)
	assert.True(t, orders.Columns[2].Nullable)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "users", orders.ForeignKeys[0].RefTable)

	users := tables[1]
	assert.Equal(t, TypeText, users.Columns[1].Type)

	assertSQLMock(t, mock)
}

func TestMySQLExtractTables(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("products"))

	mock.ExpectQuery(regexp.QuoteMeta("referenced_table_name IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows(
			[]string{"table_name", "column_name", "referenced_table_name", "referenced_column_name"}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("products").
		WillReturnRows(sqlmock.NewRows(
			[]string{"column_name", "data_type", "is_nullable", "column_key"}).
			AddRow("id", "int", "NO", "PRI").
			AddRow("price", "decimal", "YES", ""))

	extractor := NewMySQLExtractor()
	tables, err := extractor.ExtractTables(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	products := tables[0]
	assert.Equal(t, "products", products.Name)
	assert.True(t, products.Columns[0].PrimaryKey)
	assert.Equal(t, TypeDecimal, products.Columns[1].Type)
	assert.Empty(t, products.ForeignKeys)

	assertSQLMock(t, mock)
}

func TestDuckDBExtractTables(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders"))

	mock.ExpectQuery(regexp.QuoteMeta("FROM duckdb_constraints()")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "constraint_text"}).
			AddRow("orders", "FOREIGN KEY (user_id) REFERENCES users(id)"))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "BIGINT", true, nil, true).
			AddRow(1, "user_id", "BIGINT", false, nil, false))

	extractor := NewDuckDBExtractor()
	tables, err := extractor.ExtractTables(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	orders := tables[0]
	assert.True(t, orders.Columns[0].PrimaryKey)
	assert.False(t, orders.Columns[0].Nullable)
	assert.True(t, orders.Columns[1].Nullable)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, ForeignKey{Column: "user_id", RefTable: "users", RefColumn: "id"},
		orders.ForeignKeys[0])

	assertSQLMock(t, mock)
}

func TestParseForeignKeyText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ForeignKey
		ok   bool
	}{
		{
			name: "simple",
			text: "FOREIGN KEY (user_id) REFERENCES users(id)",
			want: ForeignKey{Column: "user_id", RefTable: "users", RefColumn: "id"},
			ok:   true,
		},
		{
			name: "quoted and spaced",
			text: `FOREIGN KEY ("order_id") REFERENCES "orders" (id)`,
			want: ForeignKey{Column: "order_id", RefTable: "orders", RefColumn: "id"},
			ok:   true,
		},
		{
			name: "composite keeps first pair",
			text: "FOREIGN KEY (a, b) REFERENCES t(x, y)",
			want: ForeignKey{Column: "a", RefTable: "t", RefColumn: "x"},
			ok:   true,
		},
		{
			name: "not a foreign key",
			text: "PRIMARY KEY (id)",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseForeignKeyText(tt.text)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBuildWrapsExtractionFailure(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnError(assert.AnError)

	_, err := Build(context.Background(), db, NewSQLiteExtractor(), logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))

	assertSQLMock(t, mock)
}

func TestBuildFailsOnEmptyDatabase(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	model, err := Build(context.Background(), db, NewSQLiteExtractor(), logging.NewNopLogger())
	require.Error(t, err)
	assert.Nil(t, model)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExtraction))
	assert.Contains(t, err.Error(), "no user tables")

	assertSQLMock(t, mock)
}

func TestBuildRecordsDanglingForeignKeyWarnings(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sqlite_master")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("orders"))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "user_id", "INTEGER", 1, nil, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("orders")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}).
			AddRow(0, 0, "users", "user_id", "id", "NO ACTION", "NO ACTION", "NONE"))

	model, err := Build(context.Background(), db, NewSQLiteExtractor(), logging.NewNopLogger())
	require.NoError(t, err)

	orders, ok := model.Table("orders")
	require.True(t, ok)
	assert.Empty(t, orders.ForeignKeys)

	require.Len(t, model.Warnings(), 1)
	assert.Contains(t, model.Warnings()[0], "missing table")

	assertSQLMock(t, mock)
}
