package validate

import (
	"strings"

	"github.com/kyleking/asksql/internal/errors"
)

// TokenType identifies the lexical class of a SQL token.
type TokenType int

const (
	TokenWord TokenType = iota
	TokenNumber
	TokenString
	TokenQuotedIdent
	TokenOperator
	TokenComma
	TokenDot
	TokenSemicolon
	TokenOpenParen
	TokenCloseParen
)

// Token is one lexical unit of a SQL statement. Text preserves the original
// spelling; Upper is the uppercase form used for keyword comparison.
type Token struct {
	Type  TokenType
	Text  string
	Upper string
	Pos   int
}

// IsKeyword reports whether the token is a word matching the given keyword,
// ignoring case. String and identifier tokens never match.
func (t Token) IsKeyword(keyword string) bool {
	return t.Type == TokenWord && t.Upper == keyword
}

// Tokenize splits a SQL statement into tokens. Comments are consumed and
// dropped; string literals and quoted identifiers come back as single tokens
// so keyword checks can never fire on quoted content. Unterminated strings,
// identifiers, and block comments are errors.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token

	i := 0
	for i < len(input) {
		c := input[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < len(input) && input[i+1] == '-':
			for i < len(input) && input[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < len(input) && input[i+1] == '*':
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				return nil, errors.Newf(errors.ErrTypeValidation,
					"unterminated block comment at offset %d", i)
			}

			i += end + 4

		case c == '\'':
			text, next, err := scanQuoted(input, i, '\'')
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, Token{Type: TokenString, Text: text, Pos: i})
			i = next

		case c == '"':
			text, next, err := scanQuoted(input, i, '"')
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, Token{Type: TokenQuotedIdent, Text: text, Pos: i})
			i = next

		case c >= '0' && c <= '9':
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}

			tokens = append(tokens, token(TokenNumber, input[start:i], start))

		case isIdentStart(c):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}

			tokens = append(tokens, token(TokenWord, input[start:i], start))

		case c == ',':
			tokens = append(tokens, token(TokenComma, ",", i))
			i++

		case c == '.':
			tokens = append(tokens, token(TokenDot, ".", i))
			i++

		case c == ';':
			tokens = append(tokens, token(TokenSemicolon, ";", i))
			i++

		case c == '(':
			tokens = append(tokens, token(TokenOpenParen, "(", i))
			i++

		case c == ')':
			tokens = append(tokens, token(TokenCloseParen, ")", i))
			i++

		case strings.ContainsRune("+-*/%<>=!|", rune(c)):
			start := i
			for i < len(input) && strings.ContainsRune("+-*/%<>=!|", rune(input[i])) {
				i++
			}

			tokens = append(tokens, token(TokenOperator, input[start:i], start))

		default:
			return nil, errors.Newf(errors.ErrTypeValidation,
				"unexpected character %q at offset %d", string(c), i)
		}
	}

	return tokens, nil
}

// scanQuoted consumes a quoted region starting at start, honoring the SQL
// doubled-quote escape. Returns the literal content without quotes.
func scanQuoted(input string, start int, quote byte) (string, int, error) {
	var b strings.Builder

	i := start + 1
	for i < len(input) {
		if input[i] != quote {
			b.WriteByte(input[i])
			i++

			continue
		}

		// Doubled quote is an escaped quote inside the literal
		if i+1 < len(input) && input[i+1] == quote {
			b.WriteByte(quote)
			i += 2

			continue
		}

		return b.String(), i + 1, nil
	}

	kind := "string literal"
	if quote == '"' {
		kind = "quoted identifier"
	}

	return "", 0, errors.Newf(errors.ErrTypeValidation,
		"unterminated %s at offset %d", kind, start)
}

func token(typ TokenType, text string, pos int) Token {
	return Token{Type: typ, Text: text, Upper: strings.ToUpper(text), Pos: pos}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}
