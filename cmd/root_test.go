package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/asksql/internal/formatter"
)

func TestCommandsRegistered(t *testing.T) {
	expected := []string{"ask", "schema", "joins", "validate", "examples", "batch", "demo", "cache", "config"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		assert.True(t, registered[name], "command %s should be registered", name)
	}
}

func TestOutputFormat(t *testing.T) {
	original := flagFormat
	defer func() { flagFormat = original }()

	flagFormat = "json"
	assert.Equal(t, formatter.FormatJSON, outputFormat())

	flagFormat = "text"
	assert.Equal(t, formatter.FormatText, outputFormat())

	flagFormat = "unknown"
	assert.Equal(t, formatter.FormatText, outputFormat())
}

func TestReadQuestionsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	content := "Show me all users\n\n# a comment\nCount the number of orders\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	questions, err := readQuestions([]string{path})
	require.NoError(t, err)

	assert.Equal(t, []string{"Show me all users", "Count the number of orders"}, questions)
}

func TestReadQuestionsMissingFile(t *testing.T) {
	_, err := readQuestions([]string{filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseDurationOr("5s", time.Minute))
	assert.Equal(t, time.Minute, parseDurationOr("not-a-duration", time.Minute))
	assert.Equal(t, time.Minute, parseDurationOr("-2s", time.Minute))
	assert.Equal(t, time.Minute, parseDurationOr("", time.Minute))
}
