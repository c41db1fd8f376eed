package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kyleking/asksql/internal/errors"
)

func storeTables() []Table {
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "name", Type: TypeText, Nullable: true},
				{Name: "email", Type: TypeText},
				{Name: "created_at", Type: TypeTimestamp},
			},
		},
		{
			Name: "categories",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "name", Type: TypeText},
			},
		},
		{
			Name: "products",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "name", Type: TypeText},
				{Name: "price", Type: TypeDecimal},
				{Name: "category_id", Type: TypeInteger, Nullable: true},
			},
			ForeignKeys: []ForeignKey{
				{Column: "category_id", RefTable: "categories", RefColumn: "id"},
			},
		},
		{
			Name: "orders",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "user_id", Type: TypeInteger},
				{Name: "total", Type: TypeDecimal},
				{Name: "created_at", Type: TypeTimestamp},
			},
			ForeignKeys: []ForeignKey{
				{Column: "user_id", RefTable: "users", RefColumn: "id"},
			},
		},
		{
			Name: "order_items",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "order_id", Type: TypeInteger},
				{Name: "product_id", Type: TypeInteger},
				{Name: "quantity", Type: TypeInteger},
			},
			ForeignKeys: []ForeignKey{
				{Column: "order_id", RefTable: "orders", RefColumn: "id"},
				{Column: "product_id", RefTable: "products", RefColumn: "id"},
			},
		},
	}
}

func TestNewModelKeepsValidForeignKeys(t *testing.T) {
	model := NewModel(storeTables())

	assert.Empty(t, model.Warnings())
	assert.Len(t, model.Tables(), 5)

	products, ok := model.Table("products")
	require.True(t, ok)
	require.Len(t, products.ForeignKeys, 1)
	assert.Equal(t, "categories", products.ForeignKeys[0].RefTable)
}

func TestNewModelDropsDanglingForeignKeys(t *testing.T) {
	tables := []Table{
		{
			Name: "orders",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "user_id", Type: TypeInteger},
				{Name: "coupon_id", Type: TypeInteger},
			},
			ForeignKeys: []ForeignKey{
				{Column: "user_id", RefTable: "users", RefColumn: "id"},     // missing table
				{Column: "coupon_id", RefTable: "coupons", RefColumn: "id"}, // missing table
			},
		},
		{
			Name: "payments",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "order_id", Type: TypeInteger},
			},
			ForeignKeys: []ForeignKey{
				{Column: "order_id", RefTable: "orders", RefColumn: "uuid"}, // missing column
				{Column: "ghost", RefTable: "orders", RefColumn: "id"},      // missing source column
			},
		},
	}

	model := NewModel(tables)

	orders, ok := model.Table("orders")
	require.True(t, ok)
	assert.Empty(t, orders.ForeignKeys)

	payments, ok := model.Table("payments")
	require.True(t, ok)
	assert.Empty(t, payments.ForeignKeys)

	require.Len(t, model.Warnings(), 4)
	assert.Contains(t, model.Warnings()[0], "missing table")
	assert.Contains(t, model.Warnings()[2], "references missing column")
	assert.Contains(t, model.Warnings()[3], "column does not exist")
}

func TestNewModelIgnoresDuplicateTables(t *testing.T) {
	tables := []Table{
		{Name: "users", Columns: []Column{{Name: "id", Type: TypeInteger}}},
		{Name: "Users", Columns: []Column{{Name: "uuid", Type: TypeText}}},
	}

	model := NewModel(tables)

	assert.Len(t, model.Tables(), 1)
	require.Len(t, model.Warnings(), 1)
	assert.Contains(t, model.Warnings()[0], "duplicate table")

	// First definition wins
	users, ok := model.Table("users")
	require.True(t, ok)
	_, hasID := users.Column("id")
	assert.True(t, hasID)
}

func TestNewModelCopiesInput(t *testing.T) {
	tables := storeTables()
	model := NewModel(tables)

	// Mutating the input must not leak into the model
	tables[0].Columns[0].Name = "mutated"

	users, ok := model.Table("users")
	require.True(t, ok)
	assert.Equal(t, "id", users.Columns[0].Name)
}

func TestTableLookupIsCaseInsensitive(t *testing.T) {
	model := NewModel(storeTables())

	for _, name := range []string{"users", "USERS", "Users"} {
		table, ok := model.Table(name)
		require.True(t, ok, "lookup %q", name)
		assert.Equal(t, "users", table.Name)
	}

	assert.False(t, model.HasTable("widgets"))
}

func TestColumnLookupIsCaseInsensitive(t *testing.T) {
	model := NewModel(storeTables())

	products, ok := model.Table("products")
	require.True(t, ok)

	col, ok := products.Column("PRICE")
	require.True(t, ok)
	assert.Equal(t, "price", col.Name)
	assert.True(t, col.Type.IsNumeric())

	_, ok = products.Column("weight")
	assert.False(t, ok)
}

func TestPrimaryKeyAndColumnNames(t *testing.T) {
	model := NewModel(storeTables())

	orders, ok := model.Table("orders")
	require.True(t, ok)

	assert.Equal(t, []string{"id"}, orders.PrimaryKey())
	assert.Equal(t, []string{"id", "user_id", "total", "created_at"}, orders.ColumnNames())
}

func TestJoinPathDirect(t *testing.T) {
	model := NewModel(storeTables())

	path, err := model.JoinPath("products", "categories")
	require.NoError(t, err)
	require.Len(t, path, 1)

	assert.Equal(t, "products.category_id = categories.id", path[0].Condition())
}

func TestJoinPathReverseEdge(t *testing.T) {
	model := NewModel(storeTables())

	path, err := model.JoinPath("users", "orders")
	require.NoError(t, err)
	require.Len(t, path, 1)

	assert.Equal(t, "users.id = orders.user_id", path[0].Condition())
}

func TestJoinPathMultiHop(t *testing.T) {
	model := NewModel(storeTables())

	path, err := model.JoinPath("users", "products")
	require.NoError(t, err)
	require.Len(t, path, 3)

	assert.Equal(t, "users.id = orders.user_id", path[0].Condition())
	assert.Equal(t, "orders.id = order_items.order_id", path[1].Condition())
	assert.Equal(t, "order_items.product_id = products.id", path[2].Condition())
}

func TestJoinPathSameTable(t *testing.T) {
	model := NewModel(storeTables())

	path, err := model.JoinPath("users", "USERS")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestJoinPathUnknownTable(t *testing.T) {
	model := NewModel(storeTables())

	_, err := model.JoinPath("users", "widgets")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestJoinPathDisconnected(t *testing.T) {
	tables := append(storeTables(), Table{
		Name:    "audit_log",
		Columns: []Column{{Name: "id", Type: TypeInteger, PrimaryKey: true}},
	})

	model := NewModel(tables)

	_, err := model.JoinPath("users", "audit_log")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Contains(t, err.Error(), "no join path")
}

func TestJoinPathSelfReferentialCycle(t *testing.T) {
	tables := []Table{
		{
			Name: "employees",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
				{Name: "manager_id", Type: TypeInteger, Nullable: true},
				{Name: "team_id", Type: TypeInteger},
			},
			ForeignKeys: []ForeignKey{
				{Column: "manager_id", RefTable: "employees", RefColumn: "id"},
				{Column: "team_id", RefTable: "teams", RefColumn: "id"},
			},
		},
		{
			Name: "teams",
			Columns: []Column{
				{Name: "id", Type: TypeInteger, PrimaryKey: true},
			},
		},
	}

	model := NewModel(tables)

	// The self-edge must not trap the search in a loop
	path, err := model.JoinPath("employees", "teams")
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, "employees.team_id = teams.id", path[0].Condition())
}

func TestJoinPathDeterministic(t *testing.T) {
	model := NewModel(storeTables())

	first, err := model.JoinPath("users", "products")
	require.NoError(t, err)

	for range 10 {
		path, err := model.JoinPath("users", "products")
		require.NoError(t, err)
		assert.Equal(t, first, path)
	}
}

func TestDescribe(t *testing.T) {
	model := NewModel(storeTables())
	text := model.Describe()

	assert.Contains(t, text, "TABLE users (")
	assert.Contains(t, text, "id integer PRIMARY KEY NOT NULL")
	assert.Contains(t, text, "price decimal NOT NULL")
	assert.Contains(t, text, "FOREIGN KEY (category_id) REFERENCES categories(id)")
}

func TestEmptyModel(t *testing.T) {
	model := NewModel(nil)

	assert.True(t, model.IsEmpty())
	assert.Empty(t, model.TableNames())

	_, err := model.JoinPath("a", "b")
	assert.Error(t, err)
}

func TestMapColumnType(t *testing.T) {
	tests := []struct {
		raw      string
		expected ColumnType
	}{
		{"INTEGER", TypeInteger},
		{"bigint", TypeInteger},
		{"TINYINT UNSIGNED", TypeInteger},
		{"serial", TypeInteger},
		{"VARCHAR(255)", TypeText},
		{"character varying", TypeText},
		{"text", TypeText},
		{"uuid", TypeText},
		{"NUMERIC(10,2)", TypeDecimal},
		{"decimal(10, 2)", TypeDecimal},
		{"double precision", TypeDecimal},
		{"real", TypeDecimal},
		{"BOOLEAN", TypeBoolean},
		{"bool", TypeBoolean},
		{"timestamp with time zone", TypeTimestamp},
		{"DATETIME", TypeTimestamp},
		{"date", TypeDate},
		{"BLOB", TypeUnknown},
		{"", TypeUnknown},
		{"geometry", TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapColumnType(tt.raw))
		})
	}
}
