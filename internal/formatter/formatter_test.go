package formatter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/cache"
	"github.com/kyleking/asksql/internal/engine"
	"github.com/kyleking/asksql/internal/storage"
	"github.com/kyleking/asksql/internal/testutil"
	"github.com/kyleking/asksql/internal/translate"
	"github.com/kyleking/asksql/internal/validate"
)

func sampleResponse() *engine.Response {
	return &engine.Response{
		ID:       uuid.New(),
		Question: "Show me all users",
		SQL:      "SELECT * FROM users LIMIT 100",
		Source:   translate.SourceExample,
		Bindings: map[string]string{"table": "users"},
		Verdict:  validate.Verdict{Valid: true},
		Result: &storage.ResultSet{
			Columns: []string{"id", "username"},
			Rows: [][]interface{}{
				{int64(1), "john_doe"},
				{int64(2), "jane_smith"},
			},
			Elapsed: 3 * time.Millisecond,
		},
	}
}

func TestFormatResponseText(t *testing.T) {
	f := NewFormatter()

	out := f.FormatResponse(sampleResponse(), FormatText)

	assert.Contains(t, out, "Question: Show me all users")
	assert.Contains(t, out, "SELECT * FROM users LIMIT 100")
	assert.Contains(t, out, "Verdict: valid")
	assert.Contains(t, out, "john_doe")
	assert.Contains(t, out, "2 rows")
}

func TestFormatResponseJSON(t *testing.T) {
	f := NewFormatter()

	out := f.FormatResponse(sampleResponse(), FormatJSON)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "SELECT * FROM users LIMIT 100", decoded["sql"])
}

func TestFormatCandidateText(t *testing.T) {
	f := NewFormatter()
	candidate := &translate.Candidate{
		SQL:         "SELECT * FROM products WHERE price > 50",
		Source:      translate.SourceRule,
		Bindings:    map[string]string{"table": "products", "column": "price", "value": "50"},
		Explanation: "rule: comparison filter",
	}

	out := f.FormatCandidate(candidate, FormatText)

	assert.Contains(t, out, "SELECT * FROM products WHERE price > 50")
	assert.Contains(t, out, "Source: rule")
	assert.Contains(t, out, "table=products column=price value=50")
}

func TestFormatVerdictInvalid(t *testing.T) {
	f := NewFormatter()
	verdict := validate.Verdict{
		Valid: false,
		Violations: []validate.Violation{
			{Kind: validate.KindStatementType, Message: "only SELECT statements are allowed", Fragment: "DELETE"},
			{Kind: validate.KindMissingWhere, Message: "DELETE requires a WHERE clause"},
		},
		Suggestions: []string{"rephrase the question as a read-only query"},
	}

	out := f.FormatVerdict(verdict, FormatText)

	assert.Contains(t, out, "invalid (2 violations)")
	assert.Contains(t, out, string(validate.KindStatementType))
	assert.Contains(t, out, `(near "DELETE")`)
	assert.Contains(t, out, "hint: rephrase")
}

func TestFormatModelText(t *testing.T) {
	f := NewFormatter()
	model := testutil.NewEcommerceModel()

	out := f.FormatModel(model, FormatText)

	assert.Contains(t, out, "TABLE users")
	assert.Contains(t, out, "TABLE products")
}

func TestFormatJoinPath(t *testing.T) {
	f := NewFormatter()
	model := testutil.NewEcommerceModel()

	steps, err := model.JoinPath("orders", "users")
	require.NoError(t, err)

	out := f.FormatJoinPath("orders", "users", steps, FormatText)

	assert.Contains(t, out, "orders -> users")
	assert.Contains(t, out, "JOIN users ON")
}

func TestFormatJoinPathSameTable(t *testing.T) {
	f := NewFormatter()

	out := f.FormatJoinPath("users", "users", nil, FormatText)

	assert.Contains(t, out, "no join needed")
}

func TestFormatResultSetAlignment(t *testing.T) {
	f := NewFormatter()
	result := &storage.ResultSet{
		Columns: []string{"id", "username"},
		Rows: [][]interface{}{
			{int64(1), "john_doe"},
			{int64(2), nil},
		},
	}

	out := f.FormatResultSet(result, FormatText)
	lines := strings.Split(out, "\n")

	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "id  username", lines[0])
	assert.Equal(t, "--  --------", lines[1])
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "2 rows")
}

func TestFormatResultSetTruncated(t *testing.T) {
	f := NewFormatter()
	result := &storage.ResultSet{
		Columns:   []string{"id"},
		Rows:      [][]interface{}{{int64(1)}},
		Truncated: true,
	}

	out := f.FormatResultSet(result, FormatText)

	assert.Contains(t, out, "1 row (truncated)")
}

func TestFormatExamples(t *testing.T) {
	f := NewFormatter()

	out := f.FormatExamples(bank.Default().Examples(), FormatText)

	assert.Contains(t, out, " 1. ")
	assert.Contains(t, out, "{table}")
}

func TestFormatCacheStats(t *testing.T) {
	f := NewFormatter()
	stats := &cache.Stats{TotalEntries: 3, TotalSize: 1024, Hits: 6, Misses: 2, HitRate: 0.75}

	out := f.FormatCacheStats(stats, FormatText)

	assert.Contains(t, out, "Entries: 3")
	assert.Contains(t, out, "HitRate: 75.0%")
}
