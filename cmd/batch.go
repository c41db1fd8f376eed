package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var batchWorkers int

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Answer a batch of questions concurrently",
	Long: `Read one question per line from a file (or stdin when no file is
given) and answer them concurrently. Results print in input order
regardless of completion order.

Examples:
  asksql batch questions.txt
  cat questions.txt | asksql batch --workers 8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "Number of concurrent workers")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	questions, err := readQuestions(args)
	if err != nil {
		return err
	}

	if len(questions) == 0 {
		fmt.Println("No questions to answer.")
		return nil
	}

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.engine.AskBatch(ctx, questions, batchWorkers)

	failures := 0

	for i, result := range results {
		if i > 0 {
			fmt.Println()
		}

		if result.Err != nil {
			failures++

			fmt.Printf("Question: %s\nError:    %v\n", result.Question, result.Err)

			continue
		}

		fmt.Println(a.formatter.FormatResponse(result.Response, outputFormat()))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d questions failed", failures, len(results))
	}

	return nil
}

// readQuestions collects non-empty lines from the named file, or from
// stdin when no file argument is given. Lines starting with # are skipped.
func readQuestions(args []string) ([]string, error) {
	input := os.Stdin

	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open questions file: %w", err)
		}
		defer file.Close()

		input = file
	}

	var questions []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		questions = append(questions, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	return questions, nil
}
