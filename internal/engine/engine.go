package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/generate"
	"github.com/kyleking/asksql/internal/logging"
	"github.com/kyleking/asksql/internal/schema"
	"github.com/kyleking/asksql/internal/storage"
	"github.com/kyleking/asksql/internal/translate"
	"github.com/kyleking/asksql/internal/validate"
)

// ModelProvider supplies the current schema model. *schema.Provider
// satisfies it; tests substitute fixed models.
type ModelProvider interface {
	Current() (*schema.Model, error)
}

// Generator proposes SQL when the deterministic translator cannot.
// *generate.Manager and *generate.Client satisfy it.
type Generator interface {
	GenerateSQL(ctx context.Context, question string, model *schema.Model) (*generate.Result, error)
}

// Engine orchestrates the question-to-result pipeline: match, translate,
// validate, and optionally execute. The executor runs only after a valid
// verdict; an attached generator is consulted only when translation fails.
type Engine struct {
	models     ModelProvider
	bank       *bank.Bank
	matcher    *bank.Matcher
	translator *translate.Translator
	executor   storage.Executor
	generator  Generator
	logger     *logging.Logger
}

// Option configures optional engine collaborators at construction time.
type Option func(*Engine)

// WithExecutor attaches an executor so valid queries run against the
// database. Without it Ask stops after validation.
func WithExecutor(executor storage.Executor) Option {
	return func(e *Engine) { e.executor = executor }
}

// WithGenerator attaches a generation backend used when deterministic
// translation fails.
func WithGenerator(generator Generator) Option {
	return func(e *Engine) { e.generator = generator }
}

// WithMatcher overrides the default matcher, typically to change the
// confidence threshold.
func WithMatcher(matcher *bank.Matcher) Option {
	return func(e *Engine) { e.matcher = matcher }
}

// WithTranslator overrides the default translator, typically to change the
// row cap.
func WithTranslator(translator *translate.Translator) Option {
	return func(e *Engine) { e.translator = translator }
}

// WithLogger overrides the default logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine over a model provider and an example bank. A nil
// bank falls back to the built-in examples.
func New(models ModelProvider, b *bank.Bank, opts ...Option) *Engine {
	if b == nil {
		b = bank.Default()
	}

	e := &Engine{
		models:     models,
		bank:       b,
		matcher:    bank.NewMatcher(0, 0),
		translator: translate.NewTranslator(0),
		logger:     logging.GetLogger().WithField("component", "engine"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Response is the full outcome of one question.
type Response struct {
	ID          uuid.UUID           `json:"id"`
	Question    string              `json:"question"`
	SQL         string              `json:"sql"`
	Source      translate.Source    `json:"source"`
	Bindings    map[string]string   `json:"bindings,omitempty"`
	Intent      bank.IntentCategory `json:"intent,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
	Verdict     validate.Verdict    `json:"verdict"`
	Result      *storage.ResultSet  `json:"result,omitempty"`
}

// Ask runs the whole pipeline for one question. The returned response
// always carries the verdict; Result is set only when the verdict is valid
// and an executor is attached.
func (e *Engine) Ask(ctx context.Context, question string) (*Response, error) {
	id := uuid.New()
	logger := e.logger.WithField("id", id.String())

	model, err := e.models.Current()
	if err != nil {
		return nil, err
	}

	candidate, err := e.translateWithFallback(ctx, question, model, logger)
	if err != nil {
		return nil, err
	}

	response := &Response{
		ID:          id,
		Question:    question,
		SQL:         candidate.SQL,
		Source:      candidate.Source,
		Bindings:    candidate.Bindings,
		Intent:      candidate.Intent,
		Explanation: candidate.Explanation,
		Verdict:     validate.Validate(candidate.SQL, model),
	}

	logger.WithFields(map[string]interface{}{
		"source": string(response.Source),
		"valid":  response.Verdict.Valid,
	}).Debug("translated question")

	if !response.Verdict.Valid || e.executor == nil {
		return response, nil
	}

	result, err := e.executor.Execute(ctx, candidate.SQL)
	if err != nil {
		return nil, err
	}

	response.Result = result

	return response, nil
}

// Translate translates a question without validating or executing it.
func (e *Engine) Translate(ctx context.Context, question string) (*translate.Candidate, error) {
	model, err := e.models.Current()
	if err != nil {
		return nil, err
	}

	return e.translateWithFallback(ctx, question, model, e.logger)
}

// Validate checks a SQL statement against the current schema. An
// unavailable model still yields a verdict, with the schema checks skipped.
func (e *Engine) Validate(sqlText string) validate.Verdict {
	model, err := e.models.Current()
	if err != nil {
		model = nil
	}

	return validate.Validate(sqlText, model)
}

// Examples returns the engine's example bank contents.
func (e *Engine) Examples() []bank.Example {
	return e.bank.Examples()
}

// translateWithFallback runs the deterministic path and, when it fails and
// a generator is attached, asks the generator for a proposal.
func (e *Engine) translateWithFallback(
	ctx context.Context,
	question string,
	model *schema.Model,
	logger *logging.Logger,
) (*translate.Candidate, error) {
	matches := e.matcher.Rank(question, e.bank)

	candidate, err := e.translator.Translate(ctx, question, model, matches)
	if err == nil {
		return candidate, nil
	}

	if e.generator == nil || !errors.IsType(err, errors.ErrTypeTranslation) {
		return nil, err
	}

	logger.WithError(err).Debug("deterministic translation failed, trying generator")

	result, genErr := e.generator.GenerateSQL(ctx, question, model)
	if genErr != nil {
		// The deterministic failure is the more actionable error.
		return nil, err
	}

	return &translate.Candidate{
		SQL:         result.SQL,
		Source:      translate.SourceNeural,
		Explanation: result.Explanation,
	}, nil
}
