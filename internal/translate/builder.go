package translate

import (
	"fmt"
	"strings"
)

// sqlBuilder assembles a SELECT statement with a fixed clause order
// (SELECT, FROM, JOIN, WHERE, GROUP BY, ORDER BY, LIMIT) regardless of the
// order its setters are called in. All SQL emitted by the translator goes
// through it, so the validator's clause-ordering check holds by
// construction.
type sqlBuilder struct {
	columns []string
	from    string
	joins   []string
	wheres  []string
	groupBy []string
	orderBy string
	desc    bool
	limit   int
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{limit: -1}
}

func (b *sqlBuilder) Select(columns ...string) *sqlBuilder {
	b.columns = append(b.columns, columns...)
	return b
}

func (b *sqlBuilder) From(table string) *sqlBuilder {
	b.from = table
	return b
}

func (b *sqlBuilder) Join(table, condition string) *sqlBuilder {
	b.joins = append(b.joins, fmt.Sprintf("JOIN %s ON %s", table, condition))
	return b
}

func (b *sqlBuilder) Where(condition string) *sqlBuilder {
	b.wheres = append(b.wheres, condition)
	return b
}

func (b *sqlBuilder) GroupBy(columns ...string) *sqlBuilder {
	b.groupBy = append(b.groupBy, columns...)
	return b
}

func (b *sqlBuilder) OrderBy(column string, descending bool) *sqlBuilder {
	b.orderBy = column
	b.desc = descending

	return b
}

func (b *sqlBuilder) Limit(n int) *sqlBuilder {
	b.limit = n
	return b
}

// Build renders the statement. An empty column list becomes SELECT *.
func (b *sqlBuilder) Build() string {
	var parts []string

	columns := "*"
	if len(b.columns) > 0 {
		columns = strings.Join(b.columns, ", ")
	}

	parts = append(parts, "SELECT "+columns)

	if b.from != "" {
		parts = append(parts, "FROM "+b.from)
	}

	parts = append(parts, b.joins...)

	if len(b.wheres) > 0 {
		parts = append(parts, "WHERE "+strings.Join(b.wheres, " AND "))
	}

	if len(b.groupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(b.groupBy, ", "))
	}

	if b.orderBy != "" {
		direction := "ASC"
		if b.desc {
			direction = "DESC"
		}

		parts = append(parts, fmt.Sprintf("ORDER BY %s %s", b.orderBy, direction))
	}

	if b.limit >= 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", b.limit))
	}

	return strings.Join(parts, " ")
}
