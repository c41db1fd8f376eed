package storage

import (
	"context"
	"database/sql"

	"github.com/kyleking/asksql/internal/errors"
)

// sampleSchema is a small ecommerce schema used by the demo command and the
// integration tests. The DDL sticks to types every supported driver accepts.
var sampleSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		email VARCHAR(100) NOT NULL,
		first_name VARCHAR(50),
		last_name VARCHAR(50),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		is_active BOOLEAN DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		price DECIMAL(10,2) NOT NULL,
		category_id INTEGER REFERENCES categories(id),
		stock_quantity INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER REFERENCES users(id),
		order_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		order_total DECIMAL(10,2) NOT NULL,
		status VARCHAR(20) DEFAULT 'pending'
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY,
		order_id INTEGER REFERENCES orders(id),
		product_id INTEGER REFERENCES products(id),
		quantity INTEGER NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL
	)`,
}

var sampleData = []string{
	`INSERT INTO users (id, username, email, first_name, last_name) VALUES
		(1, 'john_doe', 'john@example.com', 'John', 'Doe'),
		(2, 'jane_smith', 'jane@example.com', 'Jane', 'Smith'),
		(3, 'bob_wilson', 'bob@example.com', 'Bob', 'Wilson'),
		(4, 'alice_brown', 'alice@example.com', 'Alice', 'Brown'),
		(5, 'charlie_davis', 'charlie@example.com', 'Charlie', 'Davis')`,
	`INSERT INTO categories (id, name, description) VALUES
		(1, 'Electronics', 'Electronic devices and accessories'),
		(2, 'Clothing', 'Apparel and fashion items'),
		(3, 'Books', 'Books and publications'),
		(4, 'Home & Garden', 'Home improvement and garden items'),
		(5, 'Sports', 'Sports equipment and accessories')`,
	`INSERT INTO products (id, name, description, price, category_id, stock_quantity) VALUES
		(1, 'Laptop', 'High-performance laptop', 999.99, 1, 50),
		(2, 'Smartphone', 'Latest smartphone model', 699.99, 1, 100),
		(3, 'T-Shirt', 'Cotton t-shirt', 19.99, 2, 200),
		(4, 'Jeans', 'Blue denim jeans', 49.99, 2, 150),
		(5, 'Programming Book', 'Learn Python programming', 29.99, 3, 75),
		(6, 'Garden Tool Set', 'Complete garden tool set', 89.99, 4, 30),
		(7, 'Basketball', 'Professional basketball', 24.99, 5, 60)`,
	`INSERT INTO orders (id, user_id, order_total, status) VALUES
		(1, 1, 1019.98, 'completed'),
		(2, 2, 69.98, 'completed'),
		(3, 3, 119.98, 'pending'),
		(4, 4, 89.99, 'completed'),
		(5, 5, 24.99, 'shipped')`,
	`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price) VALUES
		(1, 1, 1, 1, 999.99),
		(2, 1, 3, 1, 19.99),
		(3, 2, 3, 2, 19.99),
		(4, 2, 4, 1, 49.99),
		(5, 3, 5, 2, 29.99),
		(6, 3, 6, 1, 89.99),
		(7, 4, 6, 1, 89.99),
		(8, 5, 7, 1, 24.99)`,
}

// Seed creates the sample schema and loads its data. Safe to call once per
// fresh database; reseeding an already-seeded database fails on duplicate
// keys.
func Seed(ctx context.Context, db *sql.DB) error {
	for _, ddl := range sampleSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to create sample table")
		}
	}

	for _, insert := range sampleData {
		if _, err := db.ExecContext(ctx, insert); err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to insert sample data")
		}
	}

	return nil
}
