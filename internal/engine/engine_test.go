package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/generate"
	"github.com/kyleking/asksql/internal/storage"
	"github.com/kyleking/asksql/internal/testutil"
	"github.com/kyleking/asksql/internal/translate"
)

func newTestEngine(opts ...Option) *Engine {
	return New(testutil.NewStaticModelProvider(testutil.NewEcommerceModel()), nil, opts...)
}

func TestAskTranslatesValidatesExecutes(t *testing.T) {
	executor := testutil.NewMockExecutor(testutil.WithResult(&storage.ResultSet{
		Columns: []string{"id", "username"},
		Rows:    [][]interface{}{{int64(1), "john_doe"}},
	}))

	eng := newTestEngine(WithExecutor(executor))

	response, err := eng.Ask(context.Background(), testutil.QuestionShowAllUsers)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, response.ID)
	assert.Equal(t, testutil.QuestionShowAllUsers, response.Question)
	assert.Equal(t, testutil.SQLShowAllUsers, response.SQL)
	assert.True(t, response.Verdict.Valid)
	require.NotNil(t, response.Result)
	assert.Equal(t, 1, response.Result.RowCount())

	assert.Equal(t, 1, executor.Calls())
	assert.Equal(t, []string{testutil.SQLShowAllUsers}, executor.Executed())
}

func TestAskWithoutExecutorStopsAfterValidation(t *testing.T) {
	eng := newTestEngine()

	response, err := eng.Ask(context.Background(), testutil.QuestionCountOrders)
	require.NoError(t, err)

	assert.Equal(t, testutil.SQLCountOrders, response.SQL)
	assert.True(t, response.Verdict.Valid)
	assert.Nil(t, response.Result)
}

// The executor must never see SQL that failed validation, even when a
// generator proposes data-modifying statements.
func TestAskNeverExecutesInvalidSQL(t *testing.T) {
	executor := testutil.NewMockExecutor()
	generator := testutil.NewMockGenerator(&generate.Result{
		SQL:         "DROP TABLE users",
		Explanation: "hostile proposal",
	})

	eng := newTestEngine(WithExecutor(executor), WithGenerator(generator))

	response, err := eng.Ask(context.Background(), testutil.QuestionDeleteUsers)
	require.NoError(t, err)

	assert.Equal(t, translate.SourceNeural, response.Source)
	assert.False(t, response.Verdict.Valid)
	assert.Nil(t, response.Result)
	assert.Equal(t, 1, generator.Calls())
	assert.Equal(t, 0, executor.Calls(), "executor must not run invalid SQL")
}

func TestAskTranslationFailureWithoutGenerator(t *testing.T) {
	executor := testutil.NewMockExecutor()
	eng := newTestEngine(WithExecutor(executor))

	_, err := eng.Ask(context.Background(), testutil.QuestionDeleteUsers)
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrTypeTranslation))
	assert.Equal(t, 0, executor.Calls())
}

func TestAskGeneratorFailureKeepsTranslationError(t *testing.T) {
	generator := testutil.NewFailingGenerator(
		errors.New(errors.ErrTypeNetwork, "provider unavailable"))

	eng := newTestEngine(WithGenerator(generator))

	_, err := eng.Ask(context.Background(), testutil.QuestionDeleteUsers)
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrTypeTranslation))
	assert.Equal(t, 1, generator.Calls())
}

func TestAskExecutorErrorSurfaces(t *testing.T) {
	executor := testutil.NewMockExecutor(testutil.WithExecuteError(
		errors.New(errors.ErrTypeDatabase, "connection lost")))

	eng := newTestEngine(WithExecutor(executor))

	_, err := eng.Ask(context.Background(), testutil.QuestionShowAllUsers)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDatabase))
}

func TestAskModelUnavailable(t *testing.T) {
	provider := &testutil.StaticModelProvider{
		Err: errors.New(errors.ErrTypeInternal, "schema model has not been built yet"),
	}

	eng := New(provider, nil)

	_, err := eng.Ask(context.Background(), testutil.QuestionShowAllUsers)
	require.Error(t, err)
}

func TestTranslateStandalone(t *testing.T) {
	eng := newTestEngine()

	candidate, err := eng.Translate(context.Background(), testutil.QuestionExpensiveProducts)
	require.NoError(t, err)

	assert.Equal(t, testutil.SQLExpensiveProducts, candidate.SQL)
	assert.Equal(t, translate.SourceExample, candidate.Source)
}

func TestValidateStandalone(t *testing.T) {
	eng := newTestEngine()

	verdict := eng.Validate("DELETE FROM users")
	assert.False(t, verdict.Valid)

	verdict = eng.Validate("SELECT * FROM users LIMIT 10")
	assert.True(t, verdict.Valid)
}

// Validation still works when no model has been published; the schema
// checks are skipped rather than failing.
func TestValidateWithoutModel(t *testing.T) {
	provider := &testutil.StaticModelProvider{
		Err: errors.New(errors.ErrTypeInternal, "schema model has not been built yet"),
	}

	eng := New(provider, nil)

	verdict := eng.Validate("SELECT * FROM anything LIMIT 5")
	assert.True(t, verdict.Valid)

	verdict = eng.Validate("DROP TABLE anything")
	assert.False(t, verdict.Valid)
}

func TestValidateIsDeterministic(t *testing.T) {
	eng := newTestEngine()

	first := eng.Validate("SELECT widget FROM users")

	for range 5 {
		assert.Equal(t, first, eng.Validate("SELECT widget FROM users"))
	}
}

func TestExamplesExposesBank(t *testing.T) {
	eng := newTestEngine()
	assert.NotEmpty(t, eng.Examples())
}

func TestAskBatchPreservesOrder(t *testing.T) {
	executor := testutil.NewMockExecutor()
	eng := newTestEngine(WithExecutor(executor))

	questions := []string{
		testutil.QuestionShowAllUsers,
		testutil.QuestionDeleteUsers, // fails translation
		testutil.QuestionCountOrders,
		testutil.QuestionExpensiveProducts,
	}

	results := eng.AskBatch(context.Background(), questions, testutil.TestBatchWorkers)
	require.Len(t, results, len(questions))

	for i, result := range results {
		assert.Equal(t, i, result.Index)
		assert.Equal(t, questions[i], result.Question)
	}

	assert.NoError(t, results[0].Err)
	assert.Equal(t, testutil.SQLShowAllUsers, results[0].Response.SQL)

	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Response)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, testutil.SQLCountOrders, results[2].Response.SQL)

	assert.NoError(t, results[3].Err)
	assert.Equal(t, testutil.SQLExpensiveProducts, results[3].Response.SQL)

	// Three translatable questions, three executions.
	assert.Equal(t, 3, executor.Calls())
}

// cancelingExecutor cancels the batch context from inside an execution,
// after earlier questions have already settled.
type cancelingExecutor struct {
	cancel context.CancelFunc
}

func (e *cancelingExecutor) Execute(_ context.Context, _ string) (*storage.ResultSet, error) {
	e.cancel()

	return &storage.ResultSet{}, nil
}

func TestAskBatchKeepsSettledErrorsAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := newTestEngine(WithExecutor(&cancelingExecutor{cancel: cancel}))

	// The first question settles with its own translation error before the
	// second one cancels the context mid-batch.
	questions := []string{"", testutil.QuestionShowAllUsers}

	results := eng.AskBatch(ctx, questions, 1)
	require.Len(t, results, 2)

	require.Error(t, results[0].Err)
	assert.NotErrorIs(t, results[0].Err, context.Canceled)
	assert.True(t, errors.IsType(results[0].Err, errors.ErrTypeTranslation))

	assert.NoError(t, results[1].Err)
	require.NotNil(t, results[1].Response)
}

func TestAskBatchEmpty(t *testing.T) {
	eng := newTestEngine()
	assert.Empty(t, eng.AskBatch(context.Background(), nil, 4))
}

func TestAskBatchSharesModelSafely(t *testing.T) {
	eng := newTestEngine()

	questions := make([]string, 20)
	for i := range questions {
		questions[i] = testutil.QuestionShowAllUsers
	}

	testutil.RunConcurrent(t, 4, func(_ int) {
		results := eng.AskBatch(context.Background(), questions, testutil.TestBatchWorkers)

		for _, result := range results {
			if result.Err != nil {
				t.Errorf("unexpected error: %v", result.Err)
				continue
			}

			if result.Response.SQL != testutil.SQLShowAllUsers {
				t.Errorf("unexpected SQL: %s", result.Response.SQL)
			}
		}
	})
}
