// Package report renders collection results as JSON, CSV, Markdown or a
// terminal table.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	"github.com/kslabenko/repo-quality-metrics/internal/scoring"
)

// Format identifies an output format
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatTable:
		return Format(name), nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, csv, markdown or table)", name)
}

// Write renders results in the given format.
func Write(w io.Writer, format Format, results []*domain.CollectionResult) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatMarkdown:
		return WriteMarkdown(w, results)
	case FormatTable:
		WriteTable(w, results)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteJSON renders results as indented JSON. One result renders as an
// object, several as an array.
func WriteJSON(w io.Writer, results []*domain.CollectionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

// WriteCSV renders results as CSV rows, one per result. Absent metrics show
// as empty cells.
func WriteCSV(w io.Writer, results []*domain.CollectionResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, result := range results {
		fields := result.Flatten()
		if i == 0 {
			header := make([]string, 0, len(fields))
			for _, field := range fields {
				header = append(header, field.Key)
			}
			if err := cw.Write(header); err != nil {
				return err
			}
		}
		row := make([]string, 0, len(fields))
		for _, field := range fields {
			row = append(row, field.Value)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown renders results as a Markdown report with one section per
// result.
func WriteMarkdown(w io.Writer, results []*domain.CollectionResult) error {
	for i, result := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeMarkdownResult(w, result)
	}
	return nil
}

func writeMarkdownResult(w io.Writer, result *domain.CollectionResult) {
	fmt.Fprintf(w, "# Quality Report: %s\n\n", result.Repository)
	fmt.Fprintf(w, "Collected: %s\n\n", result.CollectedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "- **Overall score:** %d/100 (%s)\n", result.OverallScore, scoreLabel(result.OverallScore))
	fmt.Fprintf(w, "- **Confidence:** %d%%\n", result.Confidence)
	fmt.Fprintf(w, "- **Data source:** %s\n\n", result.DataSource)

	fmt.Fprintln(w, "## Category Scores")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Category | Score | Weight | Metrics |")
	fmt.Fprintln(w, "|----------|-------|--------|---------|")
	writeMarkdownCategory(w, "Developer Experience", result.Breakdown.DeveloperExperience)
	writeMarkdownCategory(w, "Technical Performance", result.Breakdown.TechnicalPerformance)
	writeMarkdownCategory(w, "Business Impact", result.Breakdown.BusinessImpact)
	if result.Breakdown.Survey != nil {
		writeMarkdownCategory(w, "Survey", *result.Breakdown.Survey)
	}
	if result.Breakdown.Enterprise != nil {
		writeMarkdownCategory(w, "Enterprise", *result.Breakdown.Enterprise)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Metrics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Value | Unit | Source |")
	fmt.Fprintln(w, "|--------|-------|------|--------|")
	writeMarkdownMetrics(w, domain.MetricOrderDeveloperExperience, result.Metrics.DeveloperExperience.Records())
	writeMarkdownMetrics(w, domain.MetricOrderTechnicalPerformance, result.Metrics.TechnicalPerformance.Records())
	writeMarkdownMetrics(w, domain.MetricOrderBusinessImpact, result.Metrics.BusinessImpact.Records())

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "## Collection Errors")
		fmt.Fprintln(w)
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "- %s\n", msg)
		}
	}
}

func writeMarkdownCategory(w io.Writer, name string, score domain.CategoryScore) {
	fmt.Fprintf(w, "| %s | %d | %.2f | %d |\n", name, score.Score, score.Weight, score.AvailableMetrics)
}

func writeMarkdownMetrics(w io.Writer, order []string, recs map[string]domain.MetricRecord) {
	for _, name := range order {
		rec := recs[name]
		value := "n/a"
		if v, ok := rec.Float(); ok {
			value = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", name, value, rec.Unit, rec.Source)
	}
}

// WriteTable renders a summary table to the terminal, with score statistics
// below it when there is more than one result.
func WriteTable(w io.Writer, results []*domain.CollectionResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Collected", "Score", "Label", "DX", "TP", "BI", "Confidence", "Source"})
	for _, result := range results {
		table.Append([]string{
			result.Repository,
			result.CollectedAt.Format("2006-01-02"),
			fmt.Sprintf("%d", result.OverallScore),
			coloredLabel(result.OverallScore),
			fmt.Sprintf("%d", result.Breakdown.DeveloperExperience.Score),
			fmt.Sprintf("%d", result.Breakdown.TechnicalPerformance.Score),
			fmt.Sprintf("%d", result.Breakdown.BusinessImpact.Score),
			fmt.Sprintf("%d%%", result.Confidence),
			string(result.DataSource),
		})
	}
	table.Render()

	if len(results) > 1 {
		scores := make([]float64, 0, len(results))
		for _, result := range results {
			scores = append(scores, float64(result.OverallScore))
		}
		fmt.Fprintf(w, "%d results: avg %.1f, median %.1f, p90 %.1f, stddev %.1f\n",
			len(results),
			scoring.Average(scores),
			scoring.Median(scores),
			scoring.Percentile(scores, 90),
			scoring.StdDev(scores),
		)
	}
}

var (
	excellentColor = color.New(color.FgGreen, color.Bold)
	goodColor      = color.New(color.FgGreen)
	fairColor      = color.New(color.FgYellow)
	poorColor      = color.New(color.FgRed, color.Bold)
)

func scoreLabel(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}

func coloredLabel(score int) string {
	label := scoreLabel(score)
	switch label {
	case "excellent":
		return excellentColor.Sprint(label)
	case "good":
		return goodColor.Sprint(label)
	case "fair":
		return fairColor.Sprint(label)
	default:
		return poorColor.Sprint(label)
	}
}
