package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/schema"
)

// Source identifies which pipeline stage produced a candidate.
type Source string

const (
	// SourceExample marks SQL derived from a matched bank example.
	SourceExample Source = "example"
	// SourceRule marks SQL built by the pattern rule ladder.
	SourceRule Source = "rule"
	// SourceNeural marks SQL produced by an external generation backend.
	SourceNeural Source = "neural"
)

// Candidate is a translated query before validation. Bindings records how
// template placeholders were filled so the result can be explained.
type Candidate struct {
	SQL         string              `json:"sql"`
	Source      Source              `json:"source"`
	Bindings    map[string]string   `json:"bindings,omitempty"`
	Intent      bank.IntentCategory `json:"intent,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
}

// Translator turns an English question into a SQL candidate, first by
// binding a matched example template against the schema, then by a fixed
// rule ladder when no example applies. A Translator is stateless between
// calls and safe for concurrent use.
type Translator struct {
	resolver *resolver
	maxRows  int
}

// NewTranslator creates a translator that caps unbounded selects at maxRows.
// Non-positive maxRows falls back to 100.
func NewTranslator(maxRows int) *Translator {
	if maxRows <= 0 {
		maxRows = 100
	}

	return &Translator{resolver: newResolver(), maxRows: maxRows}
}

// Translate produces a SQL candidate for the question. Matches are tried
// best-first; a match whose placeholders cannot all be bound against the
// model is skipped rather than emitted half-filled. When no match binds,
// the rule ladder runs. Identical inputs always yield identical output.
func (t *Translator) Translate(
	ctx context.Context,
	question string,
	model *schema.Model,
	matches []bank.Match,
) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeTranslation, "translation canceled")
	}

	if strings.TrimSpace(question) == "" {
		return nil, errors.New(errors.ErrTypeTranslation, "question is empty")
	}

	words := bank.Tokenize(question)

	for _, match := range matches {
		candidate, ok := t.bindExample(question, words, model, match)
		if ok {
			return candidate, nil
		}
	}

	if candidate, ok := t.applyRules(question, words, model); ok {
		return candidate, nil
	}

	return nil, errors.NewTranslationError(
		fmt.Sprintf("could not translate question: %q", question),
		model.SortedTableNames())
}

// bindExample fills a matched template's placeholders from the question and
// the schema. All placeholders present in the template must bind.
func (t *Translator) bindExample(
	question string,
	words []string,
	model *schema.Model,
	match bank.Match,
) (*Candidate, bool) {
	sqlText := match.Example.SQL
	bindings := make(map[string]string)

	if strings.Contains(sqlText, "{table}") {
		table, ok := t.resolver.resolveTable(words, model)
		if !ok {
			return nil, false
		}

		bindings["table"] = table
	}

	if strings.Contains(sqlText, "{column}") {
		table, ok := model.Table(bindings["table"])
		if !ok {
			return nil, false
		}

		column, ok := t.resolver.resolveColumn(words, table)
		if !ok {
			column, ok = t.resolver.numericColumn(words, table)
		}

		if !ok {
			return nil, false
		}

		bindings["column"] = column
	}

	if strings.Contains(sqlText, "{value}") {
		cmp, ok := extractComparison(question)
		if !ok {
			return nil, false
		}

		bindings["value"] = cmp.Value
	}

	if strings.Contains(sqlText, "{limit}") {
		limit, ok := extractLimit(question)
		if !ok {
			limit = t.maxRows
		}

		bindings["limit"] = fmt.Sprintf("%d", limit)
	}

	for key, value := range bindings {
		sqlText = strings.ReplaceAll(sqlText, "{"+key+"}", value)
	}

	if strings.Contains(sqlText, "{") {
		// Template carries a placeholder this binder does not know.
		return nil, false
	}

	return &Candidate{
		SQL:      sqlText,
		Source:   SourceExample,
		Bindings: bindings,
		Intent:   match.Example.Intent,
		Explanation: fmt.Sprintf("matched example %q (score %.2f)",
			match.Example.Pattern, match.Score),
	}, true
}

// selectVerbs are the only triggers for a bare "select everything" query.
// Questions without one of these and without any stronger signal fail
// translation instead of guessing.
var selectVerbs = map[string]bool{
	"show": true, "list": true, "display": true, "get": true,
}

var (
	countWords   = map[string]bool{"count": true, "many": true, "number": true}
	averageWords = map[string]bool{"average": true, "avg": true, "mean": true}
	sumWords     = map[string]bool{"sum": true, "total": true}
)

// applyRules is the fallback ladder, tried in a fixed priority order:
// aggregates first, then comparisons, then ordering, then plain selection.
// Every rule needs a resolvable table; most need a column as well.
func (t *Translator) applyRules(
	question string,
	words []string,
	model *schema.Model,
) (*Candidate, bool) {
	table, hasTable := t.resolver.resolveTable(words, model)
	if !hasTable {
		return nil, false
	}

	if c, ok := t.aggregateRule(words, table, model); ok {
		return c, true
	}

	if c, ok := t.filterRule(question, words, table, model); ok {
		return c, true
	}

	if c, ok := t.orderingRule(question, words, table, model); ok {
		return c, true
	}

	return t.selectRule(words, table)
}

func (t *Translator) aggregateRule(
	words []string,
	table string,
	model *schema.Model,
) (*Candidate, bool) {
	fn := ""

	switch {
	case containsAny(words, averageWords):
		fn = "AVG"
	case containsAny(words, sumWords):
		fn = "SUM"
	case containsAny(words, countWords):
		return &Candidate{
			SQL:         newSQLBuilder().Select("COUNT(*)").From(table).Build(),
			Source:      SourceRule,
			Bindings:    map[string]string{"table": table},
			Intent:      bank.IntentAggregate,
			Explanation: "rule: count rows of " + table,
		}, true
	default:
		return nil, false
	}

	tbl, _ := model.Table(table)

	column, ok := t.resolver.numericColumn(words, tbl)
	if !ok {
		return nil, false
	}

	return &Candidate{
		SQL:         newSQLBuilder().Select(fmt.Sprintf("%s(%s)", fn, column)).From(table).Build(),
		Source:      SourceRule,
		Bindings:    map[string]string{"table": table, "column": column},
		Intent:      bank.IntentAggregate,
		Explanation: fmt.Sprintf("rule: %s of %s.%s", strings.ToLower(fn), table, column),
	}, true
}

func (t *Translator) filterRule(
	question string,
	words []string,
	table string,
	model *schema.Model,
) (*Candidate, bool) {
	cmp, ok := extractComparison(question)
	if !ok {
		return nil, false
	}

	tbl, _ := model.Table(table)

	column, ok := t.resolver.resolveColumn(words, tbl)
	if !ok {
		column, ok = t.resolver.numericColumn(words, tbl)
	}

	if !ok {
		return nil, false
	}

	condition := fmt.Sprintf("%s %s %s", column, cmp.Operator, cmp.Value)

	return &Candidate{
		SQL:    newSQLBuilder().From(table).Where(condition).Build(),
		Source: SourceRule,
		Bindings: map[string]string{
			"table": table, "column": column, "value": cmp.Value,
		},
		Intent:      bank.IntentFilter,
		Explanation: fmt.Sprintf("rule: filter %s where %s", table, condition),
	}, true
}

func (t *Translator) orderingRule(
	question string,
	words []string,
	table string,
	model *schema.Model,
) (*Candidate, bool) {
	limit, ok := extractLimit(question)
	if !ok {
		return nil, false
	}

	tbl, _ := model.Table(table)

	column, ok := t.resolver.resolveColumn(words, tbl)
	if !ok {
		column, ok = t.resolver.numericColumn(words, tbl)
	}

	if !ok {
		return nil, false
	}

	return &Candidate{
		SQL:    newSQLBuilder().From(table).OrderBy(column, true).Limit(limit).Build(),
		Source: SourceRule,
		Bindings: map[string]string{
			"table": table, "column": column, "limit": fmt.Sprintf("%d", limit),
		},
		Intent:      bank.IntentOrderLimit,
		Explanation: fmt.Sprintf("rule: top %d %s by %s", limit, table, column),
	}, true
}

func (t *Translator) selectRule(words []string, table string) (*Candidate, bool) {
	if !containsAny(words, selectVerbs) {
		return nil, false
	}

	return &Candidate{
		SQL:         newSQLBuilder().From(table).Limit(t.maxRows).Build(),
		Source:      SourceRule,
		Bindings:    map[string]string{"table": table},
		Intent:      bank.IntentSelect,
		Explanation: "rule: select all rows of " + table,
	}, true
}

func containsAny(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}

	return false
}
