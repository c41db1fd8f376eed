package generate

import (
	"context"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/schema"
	"github.com/kyleking/asksql/internal/translate"
)

// ruleConfidence is reported for SQL built by the rule ladder without an
// example match backing it up.
const ruleConfidence = 0.4

// RuleService is the deterministic generation backend. It reuses the
// example matcher and the translator, so it needs no network and always
// produces the same SQL for the same question. It backs the manager's
// fallback path and works standalone when no provider is configured.
type RuleService struct {
	bank       *bank.Bank
	matcher    *bank.Matcher
	translator *translate.Translator
}

// NewRuleService creates a rule-based generation service over the given
// example bank. A nil bank falls back to the built-in examples.
func NewRuleService(b *bank.Bank, matcher *bank.Matcher, translator *translate.Translator) *RuleService {
	if b == nil {
		b = bank.Default()
	}

	if matcher == nil {
		matcher = bank.NewMatcher(0, 0)
	}

	if translator == nil {
		translator = translate.NewTranslator(0)
	}

	return &RuleService{bank: b, matcher: matcher, translator: translator}
}

// GenerateSQL translates the question through the example bank and the rule
// ladder.
func (s *RuleService) GenerateSQL(
	ctx context.Context,
	question string,
	model *schema.Model,
) (*Result, error) {
	matches := s.matcher.Rank(question, s.bank)

	candidate, err := s.translator.Translate(ctx, question, model, matches)
	if err != nil {
		return nil, err
	}

	confidence := ruleConfidence
	if candidate.Source == translate.SourceExample && len(matches) > 0 {
		confidence = matches[0].Score
	}

	return &Result{
		SQL:         candidate.SQL,
		Explanation: candidate.Explanation,
		Confidence:  confidence,
		Provider:    "rule",
	}, nil
}

// Configure is a no-op; the rule service has no tunable backend.
func (s *RuleService) Configure(_ Config) error {
	return nil
}
