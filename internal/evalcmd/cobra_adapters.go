package evalcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/config"
	"github.com/cardlens/cardlens/internal/pipeline"
)

// ConfigLoader returns the settings the root command resolved
type ConfigLoader func() (*config.Config, error)

// NewRunCmd creates the run command for evaluating card identification
func NewRunCmd(loadConfig ConfigLoader) *cobra.Command {
	var datasetPath string
	var outputDir string
	var sampleSize int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run region identification against a labelled dataset",
		Long: `Run the full identification pipeline (capture, OCR, card lookup) for every
sample of a dataset and compare the resolved card with the expected name.

A dataset is a JSONL or parquet file where each sample names a frame image,
the pointer position and the expected card name.`,
		Example: `  # Evaluate 25 samples with the configured provider
  cardlens eval run --dataset ./frames/samples.jsonl --sample 25

  # Evaluate everything with Gemini, 8 samples at a time
  CARDLENS_OCR_PROVIDER=gemini cardlens eval run --dataset ./frames/samples.parquet --sample -1 --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(true); err != nil {
				return err
			}
			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}

			_, _, err = executeRun(cmd.Context(), p, runOptions{
				datasetPath: datasetPath,
				sampleSize:  sampleSize,
				concurrency: concurrency,
				outputDir:   outputDir,
				provider:    cfg.OCR.Provider,
				model:       cfg.OCR.Model,
				capture:     cfg.CaptureSize(),
				scale:       cfg.Capture.Scale,
			}, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset (.jsonl or .parquet)")
	cmd.Flags().IntVar(&sampleSize, "sample", 10, "Number of samples to evaluate (-1 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of samples processed in parallel")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory for YAML results")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report from saved evaluation results",
		Example: `  cardlens eval report --results evals/anthropic-2026-01-01_12-00-00.yaml
  cardlens eval report --results evals/anthropic-2026-01-01_12-00-00.yaml --format csv > misses.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(resultsPath, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to a results YAML file")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")

	_ = cmd.MarkFlagRequired("results")
	return cmd
}

// NewInspectCmd creates the inspect command for browsing a dataset
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int

	cmd := &cobra.Command{
		Use:     "inspect",
		Short:   "List the samples of a dataset",
		Example: `  cardlens eval inspect --dataset ./frames/samples.jsonl --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd.Context(), datasetPath, limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset (.jsonl or .parquet)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of samples to list (0 for all)")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
