package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/validate"
)

// ResultSet holds the rows returned by an executed query. Values are plain
// Go types; driver byte slices are converted to strings so results render
// and marshal cleanly.
type ResultSet struct {
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	Truncated bool            `json:"truncated,omitempty"`
	Elapsed   time.Duration   `json:"elapsed,omitempty"`
}

// RowCount returns the number of rows in the result.
func (r *ResultSet) RowCount() int {
	return len(r.Rows)
}

// Executor runs validated SQL and returns its rows.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (*ResultSet, error)
}

// CappedExecutor executes queries against a live database with a hard row
// cap. Statements without their own LIMIT get one appended, except plain
// aggregates that return a single row anyway. Rows beyond the cap are
// dropped and the result is marked truncated.
type CappedExecutor struct {
	db      *sql.DB
	maxRows int
	timeout time.Duration
}

// NewCappedExecutor creates an executor over the given connection.
// Non-positive maxRows falls back to 100.
func NewCappedExecutor(db *sql.DB, maxRows int, timeout time.Duration) *CappedExecutor {
	if maxRows <= 0 {
		maxRows = 100
	}

	return &CappedExecutor{db: db, maxRows: maxRows, timeout: timeout}
}

// Execute runs the statement and scans up to maxRows rows.
func (e *CappedExecutor) Execute(ctx context.Context, sqlText string) (*ResultSet, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)

		defer cancel()
	}

	capped := e.applyCap(sqlText)
	start := time.Now()

	rows, err := e.db.QueryContext(ctx, capped)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "query execution failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to read result columns")
	}

	result := &ResultSet{Columns: columns}

	for rows.Next() {
		if len(result.Rows) >= e.maxRows {
			result.Truncated = true
			break
		}

		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to scan row")
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "row iteration failed")
	}

	result.Elapsed = time.Since(start)

	return result, nil
}

// applyCap appends a LIMIT clause when the statement has none and is not a
// bare aggregate. Statement structure is read from tokens, never from
// substrings, so quoted literals cannot confuse the check.
func (e *CappedExecutor) applyCap(sqlText string) string {
	tokens, err := validate.Tokenize(sqlText)
	if err != nil {
		return sqlText
	}

	hasLimit := false
	hasGroupBy := false
	hasAggregate := false
	parens := 0

	for i, token := range tokens {
		switch token.Type {
		case validate.TokenOpenParen:
			parens++
		case validate.TokenCloseParen:
			parens--
		case validate.TokenWord:
			if parens != 0 {
				continue
			}

			switch token.Upper {
			case "LIMIT":
				hasLimit = true
			case "GROUP":
				hasGroupBy = true
			case "COUNT", "SUM", "AVG", "MIN", "MAX":
				if i+1 < len(tokens) && tokens[i+1].Type == validate.TokenOpenParen {
					hasAggregate = true
				}
			}
		}
	}

	if hasLimit {
		return sqlText
	}

	// A plain aggregate returns one row; only grouped aggregates can grow.
	if hasAggregate && !hasGroupBy {
		return sqlText
	}

	trimmed := strings.TrimRight(strings.TrimSpace(sqlText), ";")

	return fmt.Sprintf("%s LIMIT %d", trimmed, e.maxRows)
}
