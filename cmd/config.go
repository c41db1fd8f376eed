package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyleking/asksql/internal/formatter"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the active configuration",
	Long:  `Show the configuration after merging defaults, the config file, environment variables, and command-line flags.`,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if outputFormat() == formatter.FormatJSON {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Println(string(data))

		return nil
	}

	fmt.Println("Active configuration:")

	fmt.Println("\nDatabase:")
	fmt.Printf("  DSN: %s\n", cfg.Database.DSN)
	fmt.Printf("  Max Connections: %d\n", cfg.Database.MaxConnections)
	fmt.Printf("  Query Timeout: %s\n", cfg.Database.QueryTimeout)

	fmt.Println("\nTranslate:")
	fmt.Printf("  Confidence Threshold: %.2f\n", cfg.Translate.ConfidenceThreshold)
	fmt.Printf("  Max Matches: %d\n", cfg.Translate.MaxMatches)
	fmt.Printf("  Max Rows: %d\n", cfg.Translate.MaxRows)

	if cfg.Translate.BankPath != "" {
		fmt.Printf("  Bank Path: %s\n", cfg.Translate.BankPath)
	}

	fmt.Println("\nGenerate:")
	fmt.Printf("  Enabled: %t\n", cfg.Generate.Enabled)

	if cfg.Generate.Enabled {
		fmt.Printf("  Provider: %s\n", cfg.Generate.Provider)
		fmt.Printf("  Model: %s\n", cfg.Generate.Model)
		fmt.Printf("  Timeout: %s\n", cfg.Generate.Timeout)
		fmt.Printf("  Retry Attempts: %d\n", cfg.Generate.RetryAttempts)
	}

	fmt.Println("\nCache:")
	fmt.Printf("  Directory: %s\n", cfg.Cache.Directory)
	fmt.Printf("  Max Size: %d MB\n", cfg.Cache.MaxSizeMB)
	fmt.Printf("  TTL: %d hours\n", cfg.Cache.TTLHours)
	fmt.Printf("  Cleanup Frequency: %s\n", cfg.Cache.CleanupFreq)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
	fmt.Printf("  Output: %s\n", cfg.Logging.Output)

	return nil
}
