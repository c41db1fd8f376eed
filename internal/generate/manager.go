package generate

import (
	"context"
	"time"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/logging"
	"github.com/kyleking/asksql/internal/schema"
)

// Manager runs a configured provider with retries and falls back to the
// rule-based service when the provider keeps failing.
type Manager struct {
	provider Service
	fallback Service
	config   ManagerConfig
	logger   *logging.Logger
}

// ManagerConfig configures retry and fallback behavior.
type ManagerConfig struct {
	RetryAttempts  int           `json:"retry_attempts"`
	RetryDelay     time.Duration `json:"retry_delay"`
	Timeout        time.Duration `json:"timeout"`
	EnableFallback bool          `json:"enable_fallback"`
}

// DefaultManagerConfig returns the retry policy used when nothing is
// configured explicitly.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		RetryAttempts:  2,
		RetryDelay:     2 * time.Second,
		Timeout:        2 * time.Minute,
		EnableFallback: true,
	}
}

// NewManager creates a manager over the given provider. A nil provider
// routes every request straight to the fallback.
func NewManager(provider Service, fallback Service, cfg ManagerConfig) *Manager {
	if fallback == nil {
		fallback = NewRuleService(nil, nil, nil)
	}

	return &Manager{
		provider: provider,
		fallback: fallback,
		config:   cfg,
		logger:   logging.GetLogger().WithField("component", "generate"),
	}
}

// GenerateSQL tries the provider with retries, then the rule fallback.
func (m *Manager) GenerateSQL(
	ctx context.Context,
	question string,
	model *schema.Model,
) (*Result, error) {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)

		defer cancel()
	}

	if m.provider != nil {
		result, err := m.tryProvider(ctx, question, model)
		if err == nil {
			return result, nil
		}

		m.logger.WithError(err).Warn("generation provider failed")

		if !m.config.EnableFallback {
			return nil, err
		}
	}

	return m.fallback.GenerateSQL(ctx, question, model)
}

// Configure forwards the configuration to the provider.
func (m *Manager) Configure(cfg Config) error {
	if m.provider == nil {
		return errors.New(errors.ErrTypeConfig, "no generation provider registered")
	}

	return m.provider.Configure(cfg)
}

// tryProvider attempts the provider with retries. Context cancellation
// stops the retry loop immediately.
func (m *Manager) tryProvider(
	ctx context.Context,
	question string,
	model *schema.Model,
) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= m.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.config.RetryDelay):
			}
		}

		result, err := m.provider.GenerateSQL(ctx, question, model)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Wrapf(lastErr, errors.ErrTypeGeneration,
		"provider failed after %d attempts", m.config.RetryAttempts+1)
}
