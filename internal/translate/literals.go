package translate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// comparison is a numeric predicate lifted out of the question text, e.g.
// "more than $50" becomes {Operator: ">", Value: "50"}.
type comparison struct {
	Operator string
	Value    string
}

var (
	numberPattern = regexp.MustCompile(`\$?\d+(?:\.\d+)?`)
	topNPattern   = regexp.MustCompile(`(?i)\btop\s+(\d+)\b`)
	firstNPattern = regexp.MustCompile(`(?i)\bfirst\s+(\d+)\b`)
)

// comparisonPhrases maps the phrasings the matcher's vocabulary recognizes
// to SQL operators. Longer phrases are listed before their prefixes so the
// scan below can take the first hit.
var comparisonPhrases = []struct {
	phrase   string
	operator string
}{
	{"greater than or equal to", ">="},
	{"less than or equal to", "<="},
	{"more than", ">"},
	{"greater than", ">"},
	{"over", ">"},
	{"above", ">"},
	{"exceeding", ">"},
	{"less than", "<"},
	{"under", "<"},
	{"below", "<"},
	{"fewer than", "<"},
	{"at least", ">="},
	{"at most", "<="},
	{"equal to", "="},
	{"equals", "="},
}

// extractComparison finds the first comparison phrase in the question and
// pairs it with the first number that follows it. Currency markers are
// stripped and the value is normalized through decimal so "$50.00" and
// "50" render the same way.
func extractComparison(question string) (comparison, bool) {
	lower := strings.ToLower(question)

	for _, cp := range comparisonPhrases {
		idx := strings.Index(lower, cp.phrase)
		if idx < 0 {
			continue
		}

		rest := lower[idx+len(cp.phrase):]

		raw := numberPattern.FindString(rest)
		if raw == "" {
			continue
		}

		value, ok := normalizeNumber(raw)
		if !ok {
			continue
		}

		return comparison{Operator: cp.operator, Value: value}, true
	}

	return comparison{}, false
}

// extractLimit picks up "top N" or "first N" phrasing. The boolean reports
// whether a limit was present in the question at all.
func extractLimit(question string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{topNPattern, firstNPattern} {
		m := pattern.FindStringSubmatch(question)
		if m == nil {
			continue
		}

		n := 0
		for _, r := range m[1] {
			n = n*10 + int(r-'0')
		}

		if n > 0 {
			return n, true
		}
	}

	return 0, false
}

func normalizeNumber(raw string) (string, bool) {
	raw = strings.TrimPrefix(raw, "$")

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", false
	}

	return d.String(), true
}
