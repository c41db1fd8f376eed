package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaRefresh bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the extracted schema model",
	Long: `Display tables, columns, keys, and relationships as seen by the
translator. The model comes from the snapshot cache when fresh; use
--refresh to force re-extraction.`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaRefresh, "refresh", false, "Re-extract the schema, ignoring any cached snapshot")

	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, appOptions{refreshSchema: schemaRefresh, skipExecutor: true})
	if err != nil {
		return err
	}
	defer a.Close()

	model, err := a.provider.Current()
	if err != nil {
		return err
	}

	fmt.Println(a.formatter.FormatModel(model, outputFormat()))

	return nil
}
