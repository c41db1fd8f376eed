package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var demoQuestions = []string{
	"Show me all users",
	"Find products that cost more than $50",
	"Count the number of orders",
	"What are the top 5 most expensive products?",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Seed a sample database and answer showcase questions",
	Long: `Create the sample e-commerce schema (users, categories, products,
orders, order_items) with seed data, then answer a few showcase questions
against it.

Examples:
  asksql demo --dsn "sqlite3::memory:"
  asksql demo --dsn "sqlite3:demo.db"`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, appOptions{refreshSchema: true, seedFixtures: true})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Sample database seeded.")
	fmt.Println()

	for i, question := range demoQuestions {
		if i > 0 {
			fmt.Println()
		}

		response, err := a.engine.Ask(ctx, question)
		if err != nil {
			fmt.Printf("Question: %s\nError:    %v\n", question, err)
			continue
		}

		fmt.Println(a.formatter.FormatResponse(response, outputFormat()))
	}

	return nil
}
