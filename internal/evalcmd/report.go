package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cardlens/cardlens/internal/eval/results"
)

func executeReport(resultsPath, format string, out io.Writer) error {
	spec, err := results.LoadYAML(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(spec, out)
	case "json":
		return printJSONReport(spec, out)
	case "csv":
		return printCSVReport(spec, out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(spec *results.EvalSpec, out io.Writer) error {
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "Card Identification Evaluation Report")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Provider: %s\n", spec.Config.Provider)
	fmt.Fprintf(out, "Model:    %s\n", spec.Config.Model)
	fmt.Fprintf(out, "Dataset:  %s\n", spec.Config.DatasetPath)
	fmt.Fprintf(out, "Capture:  %dx%d at %dx\n", spec.Config.CaptureWidth, spec.Config.CaptureHeight, spec.Config.CaptureScale)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Accuracy:           %.2f%%\n", spec.Summary.Accuracy*100)
	fmt.Fprintf(out, "Resolved Precision: %.2f%%\n", spec.Summary.ResolvedPrecision*100)
	fmt.Fprintf(out, "Text Similarity:    %.2f%%\n", spec.Summary.AverageTextSimilarity*100)
	fmt.Fprintf(out, "Average Time:       %dms\n", spec.Summary.AverageMillis)

	outcomes := make([]string, 0, len(spec.Summary.Outcomes))
	for o := range spec.Summary.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(out, "  %s: %d\n", o, spec.Summary.Outcomes[o])
	}

	fmt.Fprintln(out, "\nMisidentified Samples:")
	fmt.Fprintln(out, "========================================")
	misses := 0
	for _, r := range spec.Results {
		if r.Outcome == "match" {
			continue
		}
		misses++
		fmt.Fprintf(out, "\n[%s] %s\n", r.Identifier, r.Outcome)
		fmt.Fprintf(out, "  Expected: %s\n", r.ExpectedName)
		if r.DetectedText != "" {
			fmt.Fprintf(out, "  Detected: %s\n", truncate(r.DetectedText, 80))
		}
		if r.ResolvedName != "" {
			fmt.Fprintf(out, "  Resolved: %s\n", r.ResolvedName)
		}
		if r.Error != "" {
			fmt.Fprintf(out, "  Error:    %s\n", truncate(r.Error, 120))
		}
	}
	if misses == 0 {
		fmt.Fprintln(out, "  none")
	}
	return nil
}

func printJSONReport(spec *results.EvalSpec, out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spec)
}

func printCSVReport(spec *results.EvalSpec, out io.Writer) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{"ID", "Expected", "Detected", "Resolved", "Outcome", "Final State", "Failure Kind", "Millis"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range spec.Results {
		row := []string{
			r.Identifier,
			r.ExpectedName,
			r.DetectedText,
			r.ResolvedName,
			r.Outcome,
			r.FinalState,
			r.FailureKind,
			strconv.FormatInt(r.Millis, 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
