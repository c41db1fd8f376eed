package testutil

import (
	"github.com/kyleking/asksql/internal/schema"
)

// TableOption is a functional option for configuring test tables.
type TableOption func(*schema.Table)

// WithColumn appends a column with the given name and type.
func WithColumn(name string, colType schema.ColumnType) TableOption {
	return func(t *schema.Table) {
		t.Columns = append(t.Columns, schema.Column{Name: name, Type: colType})
	}
}

// WithPrimaryKey appends an integer primary key column.
func WithPrimaryKey(name string) TableOption {
	return func(t *schema.Table) {
		t.Columns = append(t.Columns, schema.Column{
			Name:       name,
			Type:       schema.TypeInteger,
			PrimaryKey: true,
		})
	}
}

// WithForeignKey appends a foreign key edge.
func WithForeignKey(column, refTable, refColumn string) TableOption {
	return func(t *schema.Table) {
		t.ForeignKeys = append(t.ForeignKeys, schema.ForeignKey{
			Column:    column,
			RefTable:  refTable,
			RefColumn: refColumn,
		})
	}
}

// NewTestTable creates a table with the given name and options applied in
// order.
func NewTestTable(name string, opts ...TableOption) schema.Table {
	table := schema.Table{Name: name}

	for _, opt := range opts {
		opt(&table)
	}

	return table
}

// NewTestModel builds a model from tables created with NewTestTable.
func NewTestModel(tables ...schema.Table) *schema.Model {
	return schema.NewModel(tables)
}

// NewEcommerceModel builds the sample ecommerce schema used throughout the
// test suite: users, categories, products, orders, and order_items with
// their foreign key edges.
func NewEcommerceModel() *schema.Model {
	return NewTestModel(
		NewTestTable("users",
			WithPrimaryKey("id"),
			WithColumn("username", schema.TypeText),
			WithColumn("email", schema.TypeText),
			WithColumn("first_name", schema.TypeText),
			WithColumn("last_name", schema.TypeText),
			WithColumn("created_at", schema.TypeTimestamp),
			WithColumn("is_active", schema.TypeBoolean),
		),
		NewTestTable("categories",
			WithPrimaryKey("id"),
			WithColumn("name", schema.TypeText),
			WithColumn("description", schema.TypeText),
			WithColumn("created_at", schema.TypeTimestamp),
		),
		NewTestTable("products",
			WithPrimaryKey("id"),
			WithColumn("name", schema.TypeText),
			WithColumn("description", schema.TypeText),
			WithColumn("price", schema.TypeDecimal),
			WithColumn("category_id", schema.TypeInteger),
			WithColumn("stock_quantity", schema.TypeInteger),
			WithColumn("created_at", schema.TypeTimestamp),
			WithForeignKey("category_id", "categories", "id"),
		),
		NewTestTable("orders",
			WithPrimaryKey("id"),
			WithColumn("user_id", schema.TypeInteger),
			WithColumn("order_date", schema.TypeTimestamp),
			WithColumn("order_total", schema.TypeDecimal),
			WithColumn("status", schema.TypeText),
			WithForeignKey("user_id", "users", "id"),
		),
		NewTestTable("order_items",
			WithPrimaryKey("id"),
			WithColumn("order_id", schema.TypeInteger),
			WithColumn("product_id", schema.TypeInteger),
			WithColumn("quantity", schema.TypeInteger),
			WithColumn("unit_price", schema.TypeDecimal),
			WithForeignKey("order_id", "orders", "id"),
			WithForeignKey("product_id", "products", "id"),
		),
	)
}
