package translate

import (
	"sort"
	"strings"

	"github.com/gertd/go-pluralize"

	"github.com/kyleking/asksql/internal/schema"
)

// columnSynonyms maps everyday nouns to the column names they usually stand
// for. Resolution only accepts a synonym when the target column actually
// exists on the resolved table.
var columnSynonyms = map[string][]string{
	"cost":      {"price", "unit_price"},
	"costs":     {"price", "unit_price"},
	"priced":    {"price"},
	"cheap":     {"price"},
	"expensive": {"price"},
	"stock":     {"stock_quantity", "quantity"},
	"inventory": {"stock_quantity"},
	"total":     {"order_total", "total"},
	"totals":    {"order_total", "total"},
	"amount":    {"order_total", "total", "quantity"},
	"date":      {"created_at", "order_date"},
	"created":   {"created_at"},
	"ordered":   {"order_date"},
	"email":     {"email"},
	"username":  {"username"},
	"active":    {"is_active"},
}

// resolver maps question nouns onto schema tables and columns. It is shared
// by the rule ladder and the example-slot filler.
type resolver struct {
	plural *pluralize.Client
}

func newResolver() *resolver {
	return &resolver{plural: pluralize.NewClient()}
}

// resolveTable picks the table a question is about. Each word is tried
// exactly, then through its singular and plural forms. When several words
// name tables, the one mentioned last wins; the original phrasing usually
// puts the subject at the end ("orders per user" is about users joined in,
// but "users with orders" leads with users). Ties on the same word fall
// back to alphabetical order for determinism.
func (r *resolver) resolveTable(words []string, model *schema.Model) (string, bool) {
	found := ""

	for _, word := range words {
		candidates := r.tableCandidates(word, model)
		if len(candidates) == 0 {
			continue
		}

		sort.Strings(candidates)
		found = candidates[0]
	}

	return found, found != ""
}

// resolveTables returns every distinct table the question mentions, in
// mention order. Used to detect join questions.
func (r *resolver) resolveTables(words []string, model *schema.Model) []string {
	var tables []string

	seen := make(map[string]bool)

	for _, word := range words {
		candidates := r.tableCandidates(word, model)
		if len(candidates) == 0 {
			continue
		}

		sort.Strings(candidates)

		name := candidates[0]
		if !seen[name] {
			seen[name] = true

			tables = append(tables, name)
		}
	}

	return tables
}

func (r *resolver) tableCandidates(word string, model *schema.Model) []string {
	var candidates []string

	for _, form := range r.forms(word) {
		if model.HasTable(form) {
			table, _ := model.Table(form)
			candidates = append(candidates, table.Name)
		}
	}

	if len(candidates) > 0 {
		return dedupe(candidates)
	}

	// Last rung: substring containment, so "items" reaches order_items.
	// Forms shorter than three characters match too much to be trusted.
	for _, form := range r.forms(word) {
		if len(form) < 3 {
			continue
		}

		for _, name := range model.TableNames() {
			if strings.Contains(strings.ToLower(name), form) {
				candidates = append(candidates, name)
			}
		}
	}

	return dedupe(candidates)
}

// resolveColumn picks the column a question predicate refers to, trying
// each word exactly, then its singular and plural forms, then the synonym
// table, then substring containment. The first word that resolves wins.
func (r *resolver) resolveColumn(words []string, table *schema.Table) (string, bool) {
	for _, word := range words {
		for _, form := range r.forms(word) {
			if col, ok := table.Column(form); ok {
				return col.Name, true
			}
		}

		for _, target := range columnSynonyms[strings.ToLower(word)] {
			if col, ok := table.Column(target); ok {
				return col.Name, true
			}
		}
	}

	for _, word := range words {
		for _, form := range r.forms(word) {
			if len(form) < 3 {
				continue
			}

			for _, col := range table.Columns {
				if strings.Contains(strings.ToLower(col.Name), form) {
					return col.Name, true
				}
			}
		}
	}

	return "", false
}

// numericColumn finds a column suitable for aggregation, preferring the
// question's own nouns and falling back to the table's first non-key
// numeric column.
func (r *resolver) numericColumn(words []string, table *schema.Table) (string, bool) {
	if name, ok := r.resolveColumn(words, table); ok {
		if col, found := table.Column(name); found && col.Type.IsNumeric() && !col.PrimaryKey {
			return name, true
		}
	}

	for _, col := range table.Columns {
		if col.Type.IsNumeric() && !col.PrimaryKey && !strings.HasSuffix(col.Name, "_id") {
			return col.Name, true
		}
	}

	return "", false
}

// forms returns the word itself plus its singular and plural variants,
// deduplicated, lowercased.
func (r *resolver) forms(word string) []string {
	word = strings.ToLower(word)

	return dedupe([]string{word, r.plural.Singular(word), r.plural.Plural(word)})
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))

	var out []string

	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}

		seen[v] = true

		out = append(out, v)
	}

	return out
}
