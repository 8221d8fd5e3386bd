package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/normalize"
)

// Outcome classifies one evaluated sample
type Outcome string

const (
	OutcomeMatch    Outcome = "match"     // resolved to the expected card
	OutcomeMismatch Outcome = "mismatch"  // resolved to another card
	OutcomeNotFound Outcome = "not_found" // a name was read but no card matched
	OutcomeNoName   Outcome = "no_name"   // nothing legible in the capture
	OutcomeFailed   Outcome = "failed"
)

// EvaluationResult is the result for a single labelled sample
type EvaluationResult struct {
	ID             string
	ExpectedName   string
	DetectedText   string
	ResolvedName   string
	TextSimilarity float64
	FinalState     string
	Outcome        Outcome
	FailureKind    string
	ProcessingTime time.Duration
	Error          string
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int
	Counts       map[Outcome]int
	FailureKinds map[string]int

	// Accuracy is matches over all samples
	Accuracy float64
	// ResolvedPrecision is matches over samples that resolved to any card
	ResolvedPrecision float64
	// AverageTextSimilarity only covers samples where text was detected
	AverageTextSimilarity float64

	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	Results []EvaluationResult

	EvaluationDate time.Time
	Provider       string
	Model          string
}

// SameCard reports whether a resolved card name satisfies the expected
// name. Multi-faced names ("Front // Back") match on the full name or any face.
func SameCard(expected, resolved string) bool {
	want := normalize.Name(expected)
	if want == "" {
		return false
	}
	candidates := append([]string{resolved}, strings.Split(resolved, "//")...)
	for _, c := range candidates {
		if strings.EqualFold(want, normalize.Name(c)) {
			return true
		}
	}
	return false
}

// Classify derives the outcome of a finished run
func Classify(expected string, result models.LookupResult) (Outcome, string) {
	switch r := result.(type) {
	case models.Found:
		if SameCard(expected, r.Card.Name) {
			return OutcomeMatch, r.Card.Name
		}
		return OutcomeMismatch, r.Card.Name
	case models.NotFound:
		if r.Query == "" {
			return OutcomeNoName, ""
		}
		return OutcomeNotFound, ""
	default:
		return OutcomeFailed, ""
	}
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult, provider, model string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Counts:         make(map[Outcome]int),
		FailureKinds:   make(map[string]int),
		Results:        results,
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
	}

	var similaritySum float64
	var detected int
	for _, result := range results {
		agg.TotalProcessingTime += result.ProcessingTime
		if result.DetectedText != "" {
			similaritySum += result.TextSimilarity
			detected++
		}
		agg.Counts[result.Outcome]++
		if result.Outcome == OutcomeFailed && result.FailureKind != "" {
			agg.FailureKinds[result.FailureKind]++
		}
	}

	if agg.TotalRecords > 0 {
		agg.Accuracy = float64(agg.Counts[OutcomeMatch]) / float64(agg.TotalRecords)
		agg.AverageProcessingTime = agg.TotalProcessingTime / time.Duration(agg.TotalRecords)
	}
	if detected > 0 {
		agg.AverageTextSimilarity = similaritySum / float64(detected)
	}
	if resolved := agg.Counts[OutcomeMatch] + agg.Counts[OutcomeMismatch]; resolved > 0 {
		agg.ResolvedPrecision = float64(agg.Counts[OutcomeMatch]) / float64(resolved)
	}

	return agg
}

// PrintSummary writes a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "CARDLENS EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Provider: %s\n", a.Provider)
	fmt.Fprintf(w, "Model: %s\n", a.Model)
	fmt.Fprintf(w, "Samples: %d\n", a.TotalRecords)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OUTCOMES")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, o := range []Outcome{OutcomeMatch, OutcomeMismatch, OutcomeNotFound, OutcomeNoName, OutcomeFailed} {
		fmt.Fprintf(w, "%-10s %d (%.1f%%)\n", o+":", a.Counts[o], a.percent(a.Counts[o]))
	}
	if len(a.FailureKinds) > 0 {
		kinds := make([]string, 0, len(a.FailureKinds))
		for k := range a.FailureKinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Fprintln(w, "\nFailure kinds:")
		for _, k := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", k, a.FailureKinds[k])
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Accuracy: %.2f%%\n", a.Accuracy*100)
	fmt.Fprintf(w, "Precision of resolved cards: %.2f%%\n", a.ResolvedPrecision*100)
	fmt.Fprintf(w, "Average OCR Text Similarity: %.2f%%\n", a.AverageTextSimilarity*100)
	fmt.Fprintf(w, "Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func (a *AggregateResults) percent(n int) float64 {
	if a.TotalRecords == 0 {
		return 0
	}
	return float64(n) / float64(a.TotalRecords) * 100
}
