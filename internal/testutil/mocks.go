package testutil

import (
	"context"
	"sync"

	"github.com/kyleking/asksql/internal/generate"
	"github.com/kyleking/asksql/internal/schema"
	"github.com/kyleking/asksql/internal/storage"
)

// StaticModelProvider serves a fixed schema model. It satisfies the
// engine's ModelProvider interface.
type StaticModelProvider struct {
	Model *schema.Model
	Err   error
}

// NewStaticModelProvider wraps a fixed model.
func NewStaticModelProvider(model *schema.Model) *StaticModelProvider {
	return &StaticModelProvider{Model: model}
}

// Current returns the fixed model or the injected error.
func (p *StaticModelProvider) Current() (*schema.Model, error) {
	if p.Err != nil {
		return nil, p.Err
	}

	return p.Model, nil
}

// MockExecutor implements storage.Executor with canned results, error
// injection, and call counting. Tests use the call count to prove the
// engine never executes invalid SQL.
type MockExecutor struct {
	mu sync.Mutex

	result   *storage.ResultSet
	err      error
	calls    int
	executed []string
}

// ExecutorOption is a functional option for configuring MockExecutor.
type ExecutorOption func(*MockExecutor)

// WithResult sets the result returned by Execute.
func WithResult(result *storage.ResultSet) ExecutorOption {
	return func(m *MockExecutor) {
		m.result = result
	}
}

// WithExecuteError makes every Execute call fail with err.
func WithExecuteError(err error) ExecutorOption {
	return func(m *MockExecutor) {
		m.err = err
	}
}

// NewMockExecutor creates a mock executor. Without options it returns an
// empty result set.
func NewMockExecutor(opts ...ExecutorOption) *MockExecutor {
	mock := &MockExecutor{
		result: &storage.ResultSet{Columns: []string{}, Rows: [][]interface{}{}},
	}

	for _, opt := range opts {
		opt(mock)
	}

	return mock
}

// Execute records the statement and returns the canned result or error.
func (m *MockExecutor) Execute(_ context.Context, sqlText string) (*storage.ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.executed = append(m.executed, sqlText)

	if m.err != nil {
		return nil, m.err
	}

	return m.result, nil
}

// Calls returns how many times Execute ran.
func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Executed returns the statements passed to Execute, in call order.
func (m *MockExecutor) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.executed))
	copy(out, m.executed)

	return out
}

// MockGenerator implements the engine's Generator interface with a canned
// result and call counting.
type MockGenerator struct {
	mu sync.Mutex

	result *generate.Result
	err    error
	calls  int
}

// NewMockGenerator creates a generator that always returns result.
func NewMockGenerator(result *generate.Result) *MockGenerator {
	return &MockGenerator{result: result}
}

// NewFailingGenerator creates a generator that always returns err.
func NewFailingGenerator(err error) *MockGenerator {
	return &MockGenerator{err: err}
}

// GenerateSQL returns the canned result or error.
func (m *MockGenerator) GenerateSQL(
	_ context.Context,
	_ string,
	_ *schema.Model,
) (*generate.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	return m.result, nil
}

// Configure is a no-op so the mock also satisfies generate.Service.
func (m *MockGenerator) Configure(_ generate.Config) error {
	return nil
}

// Calls returns how many times GenerateSQL ran.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}
