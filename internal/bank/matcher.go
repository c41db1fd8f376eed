package bank

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultThreshold is the confidence score below which a ranked example is
// treated as no match. Exposed so callers and tests can parameterize it.
const DefaultThreshold = 0.35

// DefaultMaxMatches caps how many ranked examples are returned.
const DefaultMaxMatches = 3

// intentBonus is added to the base overlap score when the question's domain
// vocabulary matches the example's intent category.
const intentBonus = 0.15

// Match is one ranked example with its similarity score in [0,1].
type Match struct {
	Example Example
	Score   float64
}

// Matcher ranks bank examples against incoming questions. It holds only
// configuration, so a single Matcher is safe for concurrent use.
type Matcher struct {
	threshold  float64
	maxMatches int
}

// NewMatcher creates a matcher with the given confidence threshold and
// result cap. Non-positive arguments fall back to the defaults.
func NewMatcher(threshold float64, maxMatches int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}

	return &Matcher{threshold: threshold, maxMatches: maxMatches}
}

// Threshold returns the configured confidence threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Rank scores every bank example against the question and returns those at
// or above the threshold, highest score first. Ties keep bank insertion
// order, so ranking is deterministic for identical inputs.
func (m *Matcher) Rank(question string, b *Bank) []Match {
	questionTokens := Tokenize(question)
	if len(questionTokens) == 0 {
		return nil
	}

	questionGroups := keywordGroups(questionTokens)

	var matches []Match

	for _, example := range b.Examples() {
		score := overlapScore(questionTokens, Tokenize(example.Pattern))

		if score > 0 && questionGroups[intentGroup(example.Intent)] {
			score += intentBonus
		}

		if score > 1.0 {
			score = 1.0
		}

		if score < m.threshold {
			continue
		}

		matches = append(matches, Match{Example: example, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > m.maxMatches {
		matches = matches[:m.maxMatches]
	}

	return matches
}

// overlapScore is shared-token count normalized by the larger token set.
// Placeholder tokens in the pattern ({table}, {column}, ...) are ignored on
// both sides of the comparison.
func overlapScore(question, pattern []string) float64 {
	patternSet := make(map[string]bool, len(pattern))
	patternLen := 0

	for _, token := range pattern {
		if isPlaceholder(token) {
			continue
		}

		patternSet[token] = true
		patternLen++
	}

	if patternLen == 0 {
		return 0
	}

	shared := 0
	seen := make(map[string]bool, len(question))

	for _, token := range question {
		if seen[token] {
			continue
		}

		seen[token] = true

		if patternSet[token] {
			shared++
		}
	}

	larger := len(seen)
	if patternLen > larger {
		larger = patternLen
	}

	return float64(shared) / float64(larger)
}

func isPlaceholder(token string) bool {
	return strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}")
}

// stopWords are removed before scoring. Intent-bearing verbs (show, count,
// find, top, ...) are deliberately not in this set.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"to": true, "is": true, "are": true, "me": true, "my": true, "for": true,
	"that": true, "this": true, "do": true, "does": true, "please": true,
	"what": true, "which": true, "who": true, "with": true,
}

// Tokenize lowercases the text, splits on non-word runes (keeping curly
// braces so template placeholders survive), and drops stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '{' && r != '}' && r != '_'
	})

	var tokens []string

	for _, field := range fields {
		if stopWords[field] {
			continue
		}

		tokens = append(tokens, field)
	}

	return tokens
}

// Domain keyword vocabulary, grouped by the intent category it signals.
var (
	aggregateWords = map[string]bool{
		"count": true, "sum": true, "average": true, "avg": true, "mean": true,
		"max": true, "maximum": true, "min": true, "minimum": true,
		"total": true, "many": true,
	}
	comparisonWords = map[string]bool{
		"more": true, "less": true, "greater": true, "between": true,
		"over": true, "under": true, "above": true, "below": true,
	}
	orderingWords = map[string]bool{
		"top": true, "first": true, "last": true, "highest": true,
		"lowest": true, "best": true, "most": true,
	}
)

// keywordGroups reports which domain vocabulary groups the question touches.
func keywordGroups(tokens []string) map[IntentCategory]bool {
	groups := make(map[IntentCategory]bool, 3)

	for _, token := range tokens {
		switch {
		case aggregateWords[token]:
			groups[IntentAggregate] = true
		case comparisonWords[token]:
			groups[IntentFilter] = true
		case orderingWords[token]:
			groups[IntentOrderLimit] = true
		}
	}

	return groups
}

// intentGroup maps an example intent onto the vocabulary group that should
// earn it the bonus. Select and join examples have no trigger vocabulary.
func intentGroup(intent IntentCategory) IntentCategory {
	switch intent {
	case IntentAggregate, IntentFilter, IntentOrderLimit:
		return intent
	default:
		return ""
	}
}
