package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/formatter"
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List the example bank patterns",
	Long: `Show the question patterns and SQL templates the translator
matches against. With --bank (or a configured bank path) the examples come
from that file instead of the built-in set.`,
	RunE: runExamples,
}

func init() {
	rootCmd.AddCommand(examplesCmd)
}

func runExamples(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	b := bank.Default()
	if cfg.Translate.BankPath != "" {
		b, err = bank.Load(cfg.Translate.BankPath)
		if err != nil {
			return err
		}
	}

	f := formatter.NewFormatter()
	fmt.Println(f.FormatExamples(b.Examples(), outputFormat()))

	return nil
}
