package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kyleking/asksql/internal/bank"
	"github.com/kyleking/asksql/internal/cache"
	"github.com/kyleking/asksql/internal/engine"
	"github.com/kyleking/asksql/internal/schema"
	"github.com/kyleking/asksql/internal/storage"
	"github.com/kyleking/asksql/internal/translate"
	"github.com/kyleking/asksql/internal/validate"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Formatter renders pipeline outputs for the CLI.
type Formatter struct{}

// NewFormatter creates a new formatter instance.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatResponse renders a full question outcome.
func (f *Formatter) FormatResponse(response *engine.Response, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(response)
	}

	var lines []string

	lines = append(lines, "Question: "+response.Question)
	lines = append(lines, "SQL:      "+response.SQL)
	lines = append(lines, fmt.Sprintf("Source:   %s", response.Source))

	if response.Explanation != "" {
		lines = append(lines, "Note:     "+response.Explanation)
	}

	lines = append(lines, "")
	lines = append(lines, f.FormatVerdict(response.Verdict, FormatText))

	if response.Result != nil {
		lines = append(lines, "")
		lines = append(lines, f.FormatResultSet(response.Result, FormatText))
	}

	return strings.Join(lines, "\n")
}

// FormatCandidate renders a translation without verdict or rows.
func (f *Formatter) FormatCandidate(candidate *translate.Candidate, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(candidate)
	}

	var lines []string

	lines = append(lines, "SQL:    "+candidate.SQL)
	lines = append(lines, fmt.Sprintf("Source: %s", candidate.Source))

	if len(candidate.Bindings) > 0 {
		var pairs []string
		for _, key := range []string{"table", "column", "value", "limit"} {
			if value, ok := candidate.Bindings[key]; ok {
				pairs = append(pairs, key+"="+value)
			}
		}

		lines = append(lines, "Bound:  "+strings.Join(pairs, " "))
	}

	if candidate.Explanation != "" {
		lines = append(lines, "Note:   "+candidate.Explanation)
	}

	return strings.Join(lines, "\n")
}

// FormatVerdict renders a validation verdict with one line per violation.
func (f *Formatter) FormatVerdict(verdict validate.Verdict, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(verdict)
	}

	var lines []string

	if verdict.Valid {
		lines = append(lines, "Verdict: valid")
	} else {
		lines = append(lines, fmt.Sprintf("Verdict: invalid (%d violations)", len(verdict.Violations)))
	}

	for _, violation := range verdict.Violations {
		line := fmt.Sprintf("  [%s] %s", violation.Kind, violation.Message)
		if violation.Fragment != "" {
			line += fmt.Sprintf(" (near %q)", violation.Fragment)
		}

		lines = append(lines, line)
	}

	for _, suggestion := range verdict.Suggestions {
		lines = append(lines, "  hint: "+suggestion)
	}

	return strings.Join(lines, "\n")
}

// FormatModel renders the schema description plus any build warnings.
func (f *Formatter) FormatModel(model *schema.Model, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(struct {
			Tables   []schema.Table `json:"tables"`
			Warnings []string       `json:"warnings,omitempty"`
		}{Tables: model.Tables(), Warnings: model.Warnings()})
	}

	out := model.Describe()

	if warnings := model.Warnings(); len(warnings) > 0 {
		var lines []string

		lines = append(lines, "", "Warnings:")
		for _, warning := range warnings {
			lines = append(lines, "  "+warning)
		}

		out += strings.Join(lines, "\n")
	}

	return out
}

// FormatJoinPath renders a join path as one condition per hop.
func (f *Formatter) FormatJoinPath(from, to string, steps []schema.JoinStep, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(steps)
	}

	if len(steps) == 0 {
		return fmt.Sprintf("%s and %s: same table, no join needed", from, to)
	}

	var lines []string

	lines = append(lines, fmt.Sprintf("%s -> %s (%d hops):", from, to, len(steps)))
	for _, step := range steps {
		lines = append(lines, fmt.Sprintf("  JOIN %s ON %s", step.ToTable, step.Condition()))
	}

	return strings.Join(lines, "\n")
}

// FormatResultSet renders rows as aligned columns.
func (f *Formatter) FormatResultSet(result *storage.ResultSet, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(result)
	}

	if len(result.Columns) == 0 {
		return "(no columns)"
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(result.Rows))

	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))

		for i := range result.Columns {
			text := "NULL"
			if i < len(row) && row[i] != nil {
				text = fmt.Sprintf("%v", row[i])
			}

			cells[r][i] = text

			if len(text) > widths[i] {
				widths[i] = len(text)
			}
		}
	}

	var lines []string

	lines = append(lines, f.formatRow(result.Columns, widths))
	lines = append(lines, f.separatorRow(widths))

	for _, row := range cells {
		lines = append(lines, f.formatRow(row, widths))
	}

	summary := fmt.Sprintf("%d rows", len(result.Rows))
	if len(result.Rows) == 1 {
		summary = "1 row"
	}

	if result.Truncated {
		summary += " (truncated)"
	}

	lines = append(lines, "", summary)

	return strings.Join(lines, "\n")
}

// FormatExamples renders the example bank as numbered pattern/SQL pairs.
func (f *Formatter) FormatExamples(examples []bank.Example, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(examples)
	}

	var lines []string

	for i, example := range examples {
		lines = append(lines, fmt.Sprintf("%2d. [%s] %s", i+1, example.Intent, example.Pattern))
		lines = append(lines, "    "+example.SQL)
	}

	return strings.Join(lines, "\n")
}

// FormatCacheStats renders snapshot cache statistics.
func (f *Formatter) FormatCacheStats(stats *cache.Stats, format OutputFormat) string {
	if format == FormatJSON {
		return f.toJSON(stats)
	}

	var lines []string

	lines = append(lines, fmt.Sprintf("Entries: %d", stats.TotalEntries))
	lines = append(lines, fmt.Sprintf("Size:    %d bytes", stats.TotalSize))
	lines = append(lines, fmt.Sprintf("Hits:    %d", stats.Hits))
	lines = append(lines, fmt.Sprintf("Misses:  %d", stats.Misses))
	lines = append(lines, fmt.Sprintf("HitRate: %.1f%%", stats.HitRate*100))

	return strings.Join(lines, "\n")
}

func (f *Formatter) formatRow(values []string, widths []int) string {
	padded := make([]string, len(values))
	for i, value := range values {
		padded[i] = fmt.Sprintf("%-*s", widths[i], value)
	}

	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

func (f *Formatter) separatorRow(widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}

	return strings.Join(parts, "  ")
}

func (f *Formatter) toJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}

	return string(data)
}
