package bank

import (
	"github.com/google/uuid"
)

// IntentCategory classifies what kind of SQL an example produces.
type IntentCategory string

const (
	IntentSelect     IntentCategory = "select"
	IntentAggregate  IntentCategory = "aggregate"
	IntentFilter     IntentCategory = "filter"
	IntentJoin       IntentCategory = "join"
	IntentOrderLimit IntentCategory = "order_limit"
)

// Example pairs a natural-language pattern with a SQL template. Placeholders
// in the template use curly braces ({table}, {column}, {value}, {limit}) and
// are bound against the schema model at translation time.
type Example struct {
	ID       uuid.UUID      `json:"id"                 yaml:"id"`
	Pattern  string         `json:"pattern"            yaml:"pattern"`
	SQL      string         `json:"sql"                yaml:"sql"`
	Intent   IntentCategory `json:"intent"             yaml:"intent"`
	Keywords []string       `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Bank is an ordered collection of examples. Insertion order is significant:
// the matcher breaks score ties in favor of earlier entries. A Bank is built
// once at startup; Add may extend it afterwards but only from a single
// writer, the matcher itself never mutates the bank.
type Bank struct {
	examples []Example
}

// New creates a bank from the given examples, preserving order.
func New(examples ...Example) *Bank {
	b := &Bank{examples: make([]Example, 0, len(examples))}
	b.examples = append(b.examples, examples...)

	return b
}

// Add appends an example to the bank. Entries missing an ID get one assigned.
func (b *Bank) Add(example Example) {
	if example.ID == uuid.Nil {
		example.ID = uuid.New()
	}

	b.examples = append(b.examples, example)
}

// Examples returns a copy of the bank contents in insertion order.
func (b *Bank) Examples() []Example {
	out := make([]Example, len(b.examples))
	copy(out, b.examples)

	return out
}

// Len returns the number of examples in the bank.
func (b *Bank) Len() int {
	return len(b.examples)
}

// Default returns the built-in example set. The patterns target the sample
// ecommerce schema but the templates carry placeholders, so they transfer to
// any schema with comparable table shapes.
func Default() *Bank {
	b := New()

	for _, example := range defaultExamples {
		b.Add(example)
	}

	return b
}

var defaultExamples = []Example{
	{
		Pattern:  "show me all {table}",
		SQL:      "SELECT * FROM {table} LIMIT {limit}",
		Intent:   IntentSelect,
		Keywords: []string{"show", "all", "list", "display"},
	},
	{
		Pattern:  "count the number of {table}",
		SQL:      "SELECT COUNT(*) FROM {table}",
		Intent:   IntentAggregate,
		Keywords: []string{"count", "number", "how", "many", "total"},
	},
	{
		Pattern:  "what is the average {column} of {table}",
		SQL:      "SELECT AVG({column}) FROM {table}",
		Intent:   IntentAggregate,
		Keywords: []string{"average", "avg", "mean"},
	},
	{
		Pattern:  "what is the total {column} of {table}",
		SQL:      "SELECT SUM({column}) FROM {table}",
		Intent:   IntentAggregate,
		Keywords: []string{"sum", "total"},
	},
	{
		Pattern:  "find {table} with {column} more than {value}",
		SQL:      "SELECT * FROM {table} WHERE {column} > {value}",
		Intent:   IntentFilter,
		Keywords: []string{"find", "more", "than", "greater", "over", "above"},
	},
	{
		Pattern:  "find {table} with {column} less than {value}",
		SQL:      "SELECT * FROM {table} WHERE {column} < {value}",
		Intent:   IntentFilter,
		Keywords: []string{"find", "less", "than", "under", "below", "cheaper"},
	},
	{
		Pattern:  "show me the top {limit} {table} by {column}",
		SQL:      "SELECT * FROM {table} ORDER BY {column} DESC LIMIT {limit}",
		Intent:   IntentOrderLimit,
		Keywords: []string{"top", "highest", "most", "best", "largest"},
	},
	{
		Pattern:  "show me products and their categories",
		SQL:      "SELECT p.name, c.name FROM products p JOIN categories c ON p.category_id = c.id",
		Intent:   IntentJoin,
		Keywords: []string{"products", "categories", "their"},
	},
	{
		Pattern:  "count the number of orders per user",
		SQL:      "SELECT user_id, COUNT(*) FROM orders GROUP BY user_id",
		Intent:   IntentAggregate,
		Keywords: []string{"count", "orders", "per", "each", "user"},
	},
}
