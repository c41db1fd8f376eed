package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kyleking/asksql/internal/config"
	"github.com/kyleking/asksql/internal/formatter"
	"github.com/kyleking/asksql/internal/logging"
)

var (
	flagDSN       string
	flagLogLevel  string
	flagThreshold float64
	flagMaxRows   int
	flagBank      string
	flagCacheDir  string
	flagFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "asksql",
	Short: "Ask your database questions in plain English",
	Long: `asksql translates English questions into SQL using a deterministic
example-and-rule pipeline, validates every statement against the live
database schema, and only then executes it. Queries are read-only by
construction: anything that is not a single SELECT is refused.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx := context.Background()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Database connection string")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Float64Var(&flagThreshold, "threshold", 0, "Matcher confidence threshold (0-1)")
	rootCmd.PersistentFlags().IntVar(&flagMaxRows, "max-rows", 0, "Execution row cap")
	rootCmd.PersistentFlags().StringVar(&flagBank, "bank", "", "Path to an example bank file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Schema snapshot cache directory")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
}

// loadConfig resolves the active configuration with persistent flag
// overrides applied on top of environment and file settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithOverrides(map[string]interface{}{
		"dsn":       flagDSN,
		"log-level": flagLogLevel,
		"threshold": flagThreshold,
		"max-rows":  flagMaxRows,
		"bank":      flagBank,
		"cache-dir": flagCacheDir,
	})
	if err != nil {
		return nil, err
	}

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		logging.SetupFallbackLogger()
	}

	return cfg, nil
}

func outputFormat() formatter.OutputFormat {
	if flagFormat == "json" {
		return formatter.FormatJSON
	}

	return formatter.FormatText
}
