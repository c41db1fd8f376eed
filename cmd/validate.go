package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <sql>",
	Short: "Validate a SQL statement without running it",
	Long: `Check a SQL statement against the read-only policy and the live
schema. The statement is never executed; the command exits nonzero when
the verdict is invalid.

Examples:
  asksql validate "SELECT * FROM users LIMIT 10"
  asksql validate "DELETE FROM users"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, appOptions{skipExecutor: true})
	if err != nil {
		return err
	}
	defer a.Close()

	sqlText := strings.TrimSpace(strings.Join(args, " "))
	verdict := a.engine.Validate(sqlText)

	fmt.Println(a.formatter.FormatVerdict(verdict, outputFormat()))

	if !verdict.Valid {
		return fmt.Errorf("statement failed validation with %d violations", len(verdict.Violations))
	}

	return nil
}
