package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasicSelect(t *testing.T) {
	tokens, err := Tokenize("SELECT id, name FROM users WHERE id > 5")
	require.NoError(t, err)

	var words []string

	for _, tok := range tokens {
		if tok.Type == TokenWord {
			words = append(words, tok.Upper)
		}
	}

	assert.Equal(t, []string{"SELECT", "ID", "NAME", "FROM", "USERS", "WHERE", "ID"}, words)
}

func TestTokenizeStringLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		literal string
	}{
		{name: "plain", input: "SELECT 'hello'", literal: "hello"},
		{name: "escaped quote", input: "SELECT 'it''s'", literal: "it's"},
		{name: "keyword inside", input: "SELECT 'DROP TABLE users'", literal: "DROP TABLE users"},
		{name: "empty", input: "SELECT ''", literal: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, 2)

			assert.Equal(t, TokenString, tokens[1].Type)
			assert.Equal(t, tt.literal, tokens[1].Text)
		})
	}
}

func TestTokenizeQuotedIdentifier(t *testing.T) {
	tokens, err := Tokenize(`SELECT "order" FROM "order items"`)
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, TokenQuotedIdent, tokens[1].Type)
	assert.Equal(t, "order", tokens[1].Text)
	assert.Equal(t, "order items", tokens[3].Text)
}

func TestTokenizeComments(t *testing.T) {
	tokens, err := Tokenize("SELECT 1 -- trailing comment\n/* block */ FROM t")
	require.NoError(t, err)

	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}

	assert.Equal(t, []string{"SELECT", "1", "FROM", "t"}, texts)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unterminated string", input: "SELECT 'open"},
		{name: "unterminated identifier", input: `SELECT "open`},
		{name: "unterminated block comment", input: "SELECT 1 /* open"},
		{name: "unexpected character", input: "SELECT #"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize("SELECT id")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, 0, tokens[0].Pos)
	assert.Equal(t, 7, tokens[1].Pos)
}
