package generate

import (
	"context"
	"time"

	"github.com/kyleking/asksql/internal/config"
	"github.com/kyleking/asksql/internal/schema"
)

// Service defines the interface for SQL generation backends. Every backend
// returns a Result whose SQL still has to pass validation before it may be
// executed; generation is a proposal step, never a trusted one.
type Service interface {
	GenerateSQL(ctx context.Context, question string, model *schema.Model) (*Result, error)
	Configure(config Config) error
}

// Config represents generation backend configuration.
type Config struct {
	Provider      string        `json:"provider"` // openai, anthropic, ollama, local
	Model         string        `json:"model"`
	APIKey        string        `json:"api_key,omitempty"`
	BaseURL       string        `json:"base_url,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	RetryAttempts int           `json:"retry_attempts,omitempty"`
}

// Result represents a generated SQL proposal.
type Result struct {
	SQL         string  `json:"sql"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"`
	Provider    string  `json:"provider,omitempty"`
}

// Provider constants for the supported generation backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderLocal     = "local"
)

// FromAppConfig converts the application-level generation settings into a
// backend Config. Invalid duration strings fall back to 60 seconds.
func FromAppConfig(cfg config.GenerateConfig) Config {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}

	return Config{
		Provider:      cfg.Provider,
		Model:         cfg.Model,
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Timeout:       timeout,
		RetryAttempts: cfg.RetryAttempts,
	}
}
