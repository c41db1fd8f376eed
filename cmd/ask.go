package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askNoExecute bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Translate an English question to SQL, validate it, and run it",
	Long: `Translate an English question into SQL, validate the statement
against the live schema, and execute it when it passes. Invalid statements
are reported with their violations and never reach the database.

Examples:
  asksql ask "Show me all users"
  asksql ask "Find products that cost more than $50"
  asksql ask --no-execute "Count the number of orders"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoExecute, "no-execute", false, "Stop after validation, do not run the query")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, appOptions{skipExecutor: askNoExecute})
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.TrimSpace(strings.Join(args, " "))

	response, err := a.engine.Ask(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(a.formatter.FormatResponse(response, outputFormat()))

	return nil
}
