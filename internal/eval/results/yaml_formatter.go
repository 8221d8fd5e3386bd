package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cardlens/cardlens/internal/eval/metrics"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	DatasetPath   string `yaml:"datasetpath"`
	SampleSize    int    `yaml:"samplesize"`
	CaptureWidth  int    `yaml:"capturewidth"`
	CaptureHeight int    `yaml:"captureheight"`
	CaptureScale  int    `yaml:"capturescale"`
	Timestamp     string `yaml:"timestamp"`
}

// EvalSummary is the aggregate section of the eval YAML
type EvalSummary struct {
	Accuracy              float64        `yaml:"accuracy"`
	ResolvedPrecision     float64        `yaml:"resolvedprecision"`
	AverageTextSimilarity float64        `yaml:"averagetextsimilarity"`
	Outcomes              map[string]int `yaml:"outcomes"`
	FailureKinds          map[string]int `yaml:"failurekinds,omitempty"`
	AverageMillis         int64          `yaml:"averagemillis"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier     string  `yaml:"identifier"`
	ExpectedName   string  `yaml:"expectedname"`
	DetectedText   string  `yaml:"detectedtext,omitempty"`
	TextSimilarity float64 `yaml:"textsimilarity,omitempty"`
	ResolvedName   string  `yaml:"resolvedname,omitempty"`
	FinalState     string  `yaml:"finalstate"`
	Outcome        string  `yaml:"outcome"`
	FailureKind    string  `yaml:"failurekind,omitempty"`
	Error          string  `yaml:"error,omitempty"`
	Millis         int64   `yaml:"millis"`
}

// EvalSpec represents the complete evaluation specification
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// Build converts aggregated results into the YAML document
func Build(config EvalConfig, agg *metrics.AggregateResults) EvalSpec {
	if config.Timestamp == "" {
		config.Timestamp = Timestamp(agg.EvaluationDate)
	}
	spec := EvalSpec{
		Config: config,
		Summary: EvalSummary{
			Accuracy:              agg.Accuracy,
			ResolvedPrecision:     agg.ResolvedPrecision,
			AverageTextSimilarity: agg.AverageTextSimilarity,
			Outcomes:              make(map[string]int, len(agg.Counts)),
			AverageMillis:         agg.AverageProcessingTime.Milliseconds(),
		},
		Results: make([]EvalResult, 0, len(agg.Results)),
	}
	for outcome, n := range agg.Counts {
		spec.Summary.Outcomes[string(outcome)] = n
	}
	if len(agg.FailureKinds) > 0 {
		spec.Summary.FailureKinds = agg.FailureKinds
	}

	for _, r := range agg.Results {
		spec.Results = append(spec.Results, EvalResult{
			Identifier:     r.ID,
			ExpectedName:   r.ExpectedName,
			DetectedText:   r.DetectedText,
			TextSimilarity: r.TextSimilarity,
			ResolvedName:   r.ResolvedName,
			FinalState:     r.FinalState,
			Outcome:        string(r.Outcome),
			FailureKind:    r.FailureKind,
			Error:          r.Error,
			Millis:         r.ProcessingTime.Milliseconds(),
		})
	}
	return spec
}

// SaveToYAML writes the evaluation to dir and returns the file path
func SaveToYAML(dir string, config EvalConfig, agg *metrics.AggregateResults) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	spec := Build(config, agg)

	model := strings.ReplaceAll(spec.Config.Model, "/", "_")
	if model == "" {
		model = spec.Config.Provider
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", model, spec.Config.Timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	return absPath, nil
}

// LoadYAML reads an evaluation written by SaveToYAML
func LoadYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}
	return &spec, nil
}

// Timestamp formats t the way result files are named
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02_15-04-05")
}
