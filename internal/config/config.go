package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Translate TranslateConfig `json:"translate"`
	Generate  GenerateConfig  `json:"generate"`
	Cache     CacheConfig     `json:"cache"`
	Logging   LoggingConfig   `json:"logging"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	DSN             string `json:"dsn"                env:"DB_DSN"                envDefault:"~/.config/asksql/asksql.duckdb"`
	MaxConnections  int    `json:"max_connections"    env:"DB_MAX_CONNECTIONS"    envDefault:"10"`
	MaxIdleConns    int    `json:"max_idle_conns"     env:"DB_MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime string `json:"conn_max_lifetime"  env:"DB_CONN_MAX_LIFETIME"  envDefault:"30m"`
	ConnMaxIdleTime string `json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	QueryTimeout    string `json:"query_timeout"      env:"DB_QUERY_TIMEOUT"      envDefault:"30s"`
}

// TranslateConfig tunes the matcher and translator
type TranslateConfig struct {
	ConfidenceThreshold float64 `json:"confidence_threshold" env:"TRANSLATE_CONFIDENCE_THRESHOLD" envDefault:"0.35"`
	MaxMatches          int     `json:"max_matches"          env:"TRANSLATE_MAX_MATCHES"          envDefault:"3"`
	MaxRows             int     `json:"max_rows"             env:"TRANSLATE_MAX_ROWS"             envDefault:"100"`
	BankPath            string  `json:"bank_path"            env:"TRANSLATE_BANK_PATH"            envDefault:""`
	SampleRows          int     `json:"sample_rows"          env:"TRANSLATE_SAMPLE_ROWS"          envDefault:"3"`
}

// GenerateConfig configures the optional neural generation backend
type GenerateConfig struct {
	Enabled       bool   `json:"enabled"        env:"GENERATE_ENABLED"        envDefault:"false"`
	Provider      string `json:"provider"       env:"GENERATE_PROVIDER"       envDefault:"ollama"`
	Model         string `json:"model"          env:"GENERATE_MODEL"          envDefault:"sqlcoder"`
	APIKey        string `json:"api_key,omitempty" env:"GENERATE_API_KEY"     envDefault:""`
	BaseURL       string `json:"base_url"       env:"GENERATE_BASE_URL"       envDefault:""`
	Timeout       string `json:"timeout"        env:"GENERATE_TIMEOUT"        envDefault:"60s"`
	RetryAttempts int    `json:"retry_attempts" env:"GENERATE_RETRY_ATTEMPTS" envDefault:"2"`
}

// CacheConfig represents schema snapshot cache configuration
type CacheConfig struct {
	Directory   string `json:"directory"         env:"CACHE_DIR"          envDefault:"~/.cache/asksql"`
	MaxSizeMB   int    `json:"max_size_mb"       env:"CACHE_MAX_SIZE_MB"  envDefault:"50"`
	TTLHours    int    `json:"ttl_hours"         env:"CACHE_TTL_HOURS"    envDefault:"24"`
	CleanupFreq string `json:"cleanup_frequency" env:"CACHE_CLEANUP_FREQ" envDefault:"1h"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.config/asksql/logs/asksql.log"`
}

// DefaultConfig returns the configuration with all defaults applied and
// no environment or file overrides.
func DefaultConfig() *Config {
	config := &Config{}

	// An empty environment map keeps real env vars out so only the
	// envDefault tags apply.
	if err := env.ParseWithOptions(config, env.Options{
		Prefix:      "ASKSQL_",
		Environment: map[string]string{},
	}); err != nil {
		return &Config{}
	}

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag
// overrides. Precedence is flags > environment > config file > defaults.
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config := DefaultConfig()

	// Load from config file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides using env library. Defaults are
	// already in place, so point the default tag at an unused name to keep
	// envDefault from clobbering file-loaded values.
	if err := env.ParseWithOptions(config, env.Options{
		Prefix:              "ASKSQL_",
		DefaultValueTagName: "envNoDefault",
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// Apply command-line flag overrides
	if flagOverrides != nil {
		applyFlagOverrides(config, flagOverrides)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "dsn":
			if str, ok := value.(string); ok && str != "" {
				config.Database.DSN = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "threshold":
			if f, ok := value.(float64); ok && f > 0 {
				config.Translate.ConfidenceThreshold = f
			}
		case "max-rows":
			if n, ok := value.(int); ok && n > 0 {
				config.Translate.MaxRows = n
			}
		case "bank":
			if str, ok := value.(string); ok && str != "" {
				config.Translate.BankPath = str
			}
		case "cache-dir":
			if str, ok := value.(string); ok && str != "" {
				config.Cache.Directory = str
			}
		}
	}
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if s.Kind() == reflect.Bool {
			t.Set(s)
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.Database.QueryTimeout); err != nil {
		return fmt.Errorf("invalid database query timeout: %s", config.Database.QueryTimeout)
	}

	if _, err := time.ParseDuration(config.Cache.CleanupFreq); err != nil {
		return fmt.Errorf("invalid cache cleanup frequency: %s", config.Cache.CleanupFreq)
	}

	if _, err := time.ParseDuration(config.Generate.Timeout); err != nil {
		return fmt.Errorf("invalid generate timeout: %s", config.Generate.Timeout)
	}

	if config.Database.MaxConnections <= 0 {
		return fmt.Errorf(
			"database max connections must be positive: %d",
			config.Database.MaxConnections,
		)
	}

	if config.Translate.ConfidenceThreshold < 0 || config.Translate.ConfidenceThreshold > 1 {
		return fmt.Errorf(
			"confidence threshold must be in [0,1]: %f",
			config.Translate.ConfidenceThreshold,
		)
	}

	if config.Translate.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive: %d", config.Translate.MaxRows)
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("ASKSQL_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "asksql", "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Database.DSN = expandPath(c.Database.DSN)
	c.Translate.BankPath = expandPath(c.Translate.BankPath)
	c.Cache.Directory = expandPath(c.Cache.Directory)
	c.Logging.File = expandPath(c.Logging.File)
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".config/asksql"
	}

	return filepath.Join(homeDir, ".config", "asksql")
}

// EnsureDirectories creates necessary directories for the configuration
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Cache.Directory,
		filepath.Dir(c.Logging.File),
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
