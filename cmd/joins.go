package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var joinsCmd = &cobra.Command{
	Use:   "joins <from-table> <to-table>",
	Short: "Show the foreign-key join path between two tables",
	Long: `Find the shortest foreign-key path between two tables and print
one JOIN condition per hop.

Examples:
  asksql joins order_items users
  asksql joins orders products`,
	Args: cobra.ExactArgs(2),
	RunE: runJoins,
}

func init() {
	rootCmd.AddCommand(joinsCmd)
}

func runJoins(cmd *cobra.Command, args []string) error {
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

	model, err := a.provider.Current()
	if err != nil {
		return err
	}

	steps, err := model.JoinPath(args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Println(a.formatter.FormatJoinPath(args[0], args[1], steps, outputFormat()))

	return nil
}
