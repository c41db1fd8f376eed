// Package testutil provides common constants, builders, and mocks for tests.
package testutil

import "time"

const (
	// TestTimeout is the default timeout for test operations
	TestTimeout = 30 * time.Second

	// ShortTestTimeout is a shorter timeout for quick operations
	ShortTestTimeout = 5 * time.Second

	// TestRowCap is the execution row cap used across tests
	TestRowCap = 100

	// TestThreshold is the matcher confidence threshold used across tests
	TestThreshold = 0.35

	// TestBatchWorkers is the default worker count for batch tests
	TestBatchWorkers = 4
)

// Common test questions and the SQL they translate to.
const (
	QuestionShowAllUsers = "Show me all users"
	SQLShowAllUsers      = "SELECT * FROM users LIMIT 100"

	QuestionCountOrders = "Count the number of orders"
	SQLCountOrders      = "SELECT COUNT(*) FROM orders"

	QuestionExpensiveProducts = "Find products that cost more than $50"
	SQLExpensiveProducts      = "SELECT * FROM products WHERE price > 50"

	QuestionDeleteUsers = "Delete all users"
)
