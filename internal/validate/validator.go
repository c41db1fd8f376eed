package validate

import (
	"fmt"
	"strings"

	"github.com/kyleking/asksql/internal/schema"
)

// ViolationKind classifies a validation finding.
type ViolationKind string

const (
	KindStatementType      ViolationKind = "statement_type"
	KindMultipleStatements ViolationKind = "multiple_statements"
	KindMissingWhere       ViolationKind = "missing_where"
	KindUnknownTable       ViolationKind = "unknown_table"
	KindUnknownColumn      ViolationKind = "unknown_column"
	KindSyntax             ViolationKind = "syntax"
)

// Violation is one finding against a candidate statement.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Message  string        `json:"message"`
	Fragment string        `json:"fragment,omitempty"`
}

// Verdict is the complete result of validating a statement. All checks run
// regardless of earlier findings, so Violations carries everything found, in
// check order. Suggestions are advisory and never affect Valid.
type Verdict struct {
	Valid       bool        `json:"valid"`
	Violations  []Violation `json:"violations,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// forbiddenKeywords are statement types and operations that never pass,
// matched on word tokens only so quoted content cannot trigger them.
var forbiddenKeywords = map[string]bool{
	"DROP": true, "DELETE": true, "UPDATE": true, "INSERT": true,
	"ALTER": true, "TRUNCATE": true, "CREATE": true, "GRANT": true,
	"REVOKE": true, "EXEC": true, "EXECUTE": true,
}

// Validate statically checks a candidate SQL statement against the schema
// model. It is a pure function: identical inputs always produce identical
// verdicts, and the statement is never executed or rewritten.
func Validate(sqlText string, model *schema.Model) Verdict {
	verdict := Verdict{}

	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		verdict.Violations = append(verdict.Violations, Violation{
			Kind:    KindSyntax,
			Message: "statement is empty",
		})

		return verdict
	}

	tokens, err := Tokenize(trimmed)
	if err != nil {
		verdict.Violations = append(verdict.Violations, Violation{
			Kind:     KindSyntax,
			Message:  err.Error(),
			Fragment: trimmed,
		})

		return verdict
	}

	verdict.Violations = append(verdict.Violations, checkStatementType(tokens)...)
	verdict.Violations = append(verdict.Violations, checkMissingWhere(tokens)...)

	if model != nil {
		verdict.Violations = append(verdict.Violations, checkSchema(tokens, model)...)
	}

	verdict.Violations = append(verdict.Violations, checkWellFormed(tokens)...)

	verdict.Suggestions = collectSuggestions(tokens)
	verdict.Valid = len(verdict.Violations) == 0

	return verdict
}

// checkStatementType enforces the read-only allowlist: the statement must be
// a single SELECT, and forbidden keywords may not appear anywhere as tokens.
func checkStatementType(tokens []Token) []Violation {
	var violations []Violation

	if len(tokens) == 0 {
		return violations
	}

	if !tokens[0].IsKeyword("SELECT") && !forbiddenKeywords[tokens[0].Upper] {
		violations = append(violations, Violation{
			Kind:     KindStatementType,
			Message:  "only SELECT statements are allowed",
			Fragment: tokens[0].Text,
		})
	}

	seen := make(map[string]bool)

	for _, tok := range tokens {
		if tok.Type != TokenWord || !forbiddenKeywords[tok.Upper] || seen[tok.Upper] {
			continue
		}

		seen[tok.Upper] = true
		violations = append(violations, Violation{
			Kind:     KindStatementType,
			Message:  fmt.Sprintf("forbidden keyword %s", tok.Upper),
			Fragment: tok.Text,
		})
	}

	for i, tok := range tokens {
		if tok.Type == TokenSemicolon && i < len(tokens)-1 {
			violations = append(violations, Violation{
				Kind:     KindMultipleStatements,
				Message:  "multiple statements are not allowed",
				Fragment: tokens[i+1].Text,
			})

			break
		}
	}

	return violations
}

// checkMissingWhere flags DELETE and UPDATE statements without a WHERE
// clause as a distinct violation, independent of the allowlist finding.
func checkMissingWhere(tokens []Token) []Violation {
	if len(tokens) == 0 {
		return nil
	}

	first := tokens[0]
	if !first.IsKeyword("DELETE") && !first.IsKeyword("UPDATE") {
		return nil
	}

	for _, tok := range tokens {
		if tok.IsKeyword("WHERE") {
			return nil
		}
	}

	return []Violation{{
		Kind:     KindMissingWhere,
		Message:  fmt.Sprintf("%s without a WHERE clause affects every row", first.Upper),
		Fragment: first.Text,
	}}
}

// nonColumnWords are SQL words that must not be treated as column references
// when scanning select, where, and ordering clauses.
var nonColumnWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "ORDER": true,
	"BY": true, "HAVING": true, "LIMIT": true, "OFFSET": true, "AS": true,
	"AND": true, "OR": true, "NOT": true, "IN": true, "IS": true, "NULL": true,
	"LIKE": true, "ILIKE": true, "BETWEEN": true, "DISTINCT": true,
	"ASC": true, "DESC": true, "JOIN": true, "INNER": true, "LEFT": true,
	"RIGHT": true, "FULL": true, "OUTER": true, "CROSS": true, "ON": true,
	"CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"TRUE": true, "FALSE": true, "UNION": true, "ALL": true, "CAST": true,
}

// tableRef is one table named in FROM or JOIN, with its optional alias.
type tableRef struct {
	name  string
	alias string
}

// checkSchema resolves referenced tables and columns against the model.
// Qualified references resolve through FROM/JOIN aliases; bare references
// resolve against the statement's known tables. Expressions and function
// arguments are left alone.
func checkSchema(tokens []Token, model *schema.Model) []Violation {
	var violations []Violation

	refs, aliases := collectTableRefs(tokens)

	known := make([]*schema.Table, 0, len(refs))
	flagged := make(map[string]bool)

	for _, ref := range refs {
		table, ok := model.Table(ref.name)
		if !ok {
			key := strings.ToLower(ref.name)
			if !flagged[key] {
				flagged[key] = true
				violations = append(violations, Violation{
					Kind:     KindUnknownTable,
					Message:  fmt.Sprintf("unknown table %s", ref.name),
					Fragment: ref.name,
				})
			}

			continue
		}

		known = append(known, table)
	}

	violations = append(violations, checkQualifiedColumns(tokens, model, aliases)...)

	// Bare columns can only be attributed when at least one referenced
	// table resolved; otherwise the unknown-table finding already covers it.
	if len(known) > 0 {
		violations = append(violations, checkBareColumns(tokens, known)...)
	}

	return violations
}

// collectTableRefs finds every table named after FROM or JOIN at paren depth
// zero, together with an alias map (alias and table name both resolve).
func collectTableRefs(tokens []Token) ([]tableRef, map[string]string) {
	var refs []tableRef

	aliases := make(map[string]string)
	depth := 0

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok.Type {
		case TokenOpenParen:
			depth++
		case TokenCloseParen:
			depth--
		}

		if depth != 0 || (!tok.IsKeyword("FROM") && !tok.IsKeyword("JOIN")) {
			continue
		}

		j := i + 1
		for j < len(tokens) {
			if !isIdentToken(tokens[j]) {
				break
			}

			ref := tableRef{name: tokens[j].Text}
			j++

			if j < len(tokens) && tokens[j].IsKeyword("AS") {
				j++
			}

			if j < len(tokens) && isIdentToken(tokens[j]) && !nonColumnWords[tokens[j].Upper] {
				ref.alias = tokens[j].Text
				j++
			}

			refs = append(refs, ref)
			aliases[strings.ToLower(ref.name)] = ref.name

			if ref.alias != "" {
				aliases[strings.ToLower(ref.alias)] = ref.name
			}

			// Comma-separated table lists only appear after FROM
			if tok.IsKeyword("FROM") && j < len(tokens) && tokens[j].Type == TokenComma {
				j++
				continue
			}

			break
		}
	}

	return refs, aliases
}

// checkQualifiedColumns validates every qualifier.column pair whose
// qualifier resolves to a known table.
func checkQualifiedColumns(
	tokens []Token,
	model *schema.Model,
	aliases map[string]string,
) []Violation {
	var violations []Violation

	flagged := make(map[string]bool)

	for i := 0; i+2 < len(tokens); i++ {
		if !isIdentToken(tokens[i]) || tokens[i+1].Type != TokenDot {
			continue
		}

		column := tokens[i+2]
		if !isIdentToken(column) {
			continue
		}

		tableName, ok := aliases[strings.ToLower(tokens[i].Text)]
		if !ok {
			tableName = tokens[i].Text
		}

		table, ok := model.Table(tableName)
		if !ok {
			continue
		}

		if _, ok := table.Column(column.Text); !ok {
			fragment := tokens[i].Text + "." + column.Text
			if !flagged[strings.ToLower(fragment)] {
				flagged[strings.ToLower(fragment)] = true
				violations = append(violations, Violation{
					Kind:     KindUnknownColumn,
					Message:  fmt.Sprintf("table %s has no column %s", table.Name, column.Text),
					Fragment: fragment,
				})
			}
		}
	}

	return violations
}

// checkBareColumns validates unqualified identifiers in the select, where,
// grouping, and ordering clauses against the statement's resolved tables.
func checkBareColumns(tokens []Token, known []*schema.Table) []Violation {
	var violations []Violation

	skip := bareColumnSkipSet(tokens)
	flagged := make(map[string]bool)
	depth := 0
	inFrom := false

	for i, tok := range tokens {
		switch tok.Type {
		case TokenOpenParen:
			depth++
			continue
		case TokenCloseParen:
			depth--
			continue
		}

		if tok.Type == TokenWord && depth == 0 {
			switch {
			case tok.IsKeyword("FROM") || tok.IsKeyword("JOIN"):
				inFrom = true
				continue
			case tok.IsKeyword("WHERE") || tok.IsKeyword("GROUP") ||
				tok.IsKeyword("ORDER") || tok.IsKeyword("HAVING") ||
				tok.IsKeyword("LIMIT") || tok.IsKeyword("ON"):
				inFrom = false
			}
		}

		if depth > 0 || inFrom || !isIdentToken(tok) || nonColumnWords[tok.Upper] {
			continue
		}

		// Function names, qualified parts, and aliases are not columns
		if i+1 < len(tokens) &&
			(tokens[i+1].Type == TokenOpenParen || tokens[i+1].Type == TokenDot) {
			continue
		}

		if i > 0 && tokens[i-1].Type == TokenDot {
			continue
		}

		if skip[strings.ToLower(tok.Text)] {
			continue
		}

		if columnExists(known, tok.Text) {
			continue
		}

		key := strings.ToLower(tok.Text)
		if !flagged[key] {
			flagged[key] = true
			violations = append(violations, Violation{
				Kind:     KindUnknownColumn,
				Message:  fmt.Sprintf("unknown column %s", tok.Text),
				Fragment: tok.Text,
			})
		}
	}

	return violations
}

// bareColumnSkipSet collects identifiers that look like columns but are not:
// table names, aliases, and AS-introduced output names.
func bareColumnSkipSet(tokens []Token) map[string]bool {
	skip := make(map[string]bool)

	refs, aliases := collectTableRefs(tokens)
	for _, ref := range refs {
		skip[strings.ToLower(ref.name)] = true
	}

	for alias := range aliases {
		skip[alias] = true
	}

	for i, tok := range tokens {
		if tok.IsKeyword("AS") && i+1 < len(tokens) && isIdentToken(tokens[i+1]) {
			skip[strings.ToLower(tokens[i+1].Text)] = true
		}
	}

	return skip
}

func columnExists(tables []*schema.Table, name string) bool {
	for _, table := range tables {
		if _, ok := table.Column(name); ok {
			return true
		}
	}

	return false
}

// clauseOrder is the canonical ordering enforced by the well-formedness
// check: each clause keyword may only appear after its predecessors.
var clauseOrder = []string{"SELECT", "FROM", "WHERE", "GROUP", "ORDER", "LIMIT"}

// checkWellFormed verifies balanced parentheses and canonical clause order.
// Quote balance is already guaranteed by the tokenizer.
func checkWellFormed(tokens []Token) []Violation {
	var violations []Violation

	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case TokenOpenParen:
			depth++
		case TokenCloseParen:
			depth--
		}

		if depth < 0 {
			violations = append(violations, Violation{
				Kind:     KindSyntax,
				Message:  "unbalanced parentheses",
				Fragment: ")",
			})

			break
		}
	}

	if depth > 0 {
		violations = append(violations, Violation{
			Kind:     KindSyntax,
			Message:  "unbalanced parentheses",
			Fragment: "(",
		})
	}

	positions := make(map[string]int, len(clauseOrder))
	parens := 0

	for i, tok := range tokens {
		switch tok.Type {
		case TokenOpenParen:
			parens++
		case TokenCloseParen:
			parens--
		}

		if parens != 0 || tok.Type != TokenWord {
			continue
		}

		if _, tracked := positions[tok.Upper]; !tracked && isClauseKeyword(tok.Upper) {
			positions[tok.Upper] = i
		}
	}

	last := -1
	lastClause := ""

	for _, clause := range clauseOrder {
		pos, ok := positions[clause]
		if !ok {
			continue
		}

		if pos < last {
			violations = append(violations, Violation{
				Kind:     KindSyntax,
				Message:  fmt.Sprintf("%s clause must come after %s", clause, lastClause),
				Fragment: clause,
			})
		}

		last = pos
		lastClause = clause
	}

	return violations
}

func isClauseKeyword(upper string) bool {
	for _, clause := range clauseOrder {
		if clause == upper {
			return true
		}
	}

	return false
}

// collectSuggestions produces advisory findings that do not affect validity,
// such as unbounded SELECT * statements.
func collectSuggestions(tokens []Token) []string {
	var suggestions []string

	hasStar := false
	hasLimit := false
	hasWhere := false

	for i, tok := range tokens {
		switch {
		case tok.Type == TokenOperator && tok.Text == "*" &&
			i > 0 && tokens[i-1].IsKeyword("SELECT"):
			hasStar = true
		case tok.IsKeyword("LIMIT"):
			hasLimit = true
		case tok.IsKeyword("WHERE"):
			hasWhere = true
		}
	}

	if hasStar && !hasLimit {
		suggestions = append(suggestions,
			"SELECT * without LIMIT may return a large result set")
	}

	if len(tokens) > 0 && tokens[0].IsKeyword("SELECT") && !hasWhere && !hasLimit {
		suggestions = append(suggestions,
			"consider adding a WHERE clause to narrow the result")
	}

	return suggestions
}

func isIdentToken(tok Token) bool {
	return tok.Type == TokenWord || tok.Type == TokenQuotedIdent
}
