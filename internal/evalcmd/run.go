package evalcmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cardlens/cardlens/internal/capture"
	"github.com/cardlens/cardlens/internal/eval/dataset"
	"github.com/cardlens/cardlens/internal/eval/metrics"
	"github.com/cardlens/cardlens/internal/eval/results"
	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/overlay"
	"github.com/cardlens/cardlens/internal/pipeline"
)

type runOptions struct {
	datasetPath string
	sampleSize  int
	concurrency int
	outputDir   string
	provider    string
	model       string
	capture     capture.Size
	scale       int
}

func executeRun(ctx context.Context, p *pipeline.Pipeline, opts runOptions, out io.Writer) (*metrics.AggregateResults, string, error) {
	slog.Info("Starting evaluation run", "dataset", opts.datasetPath, "provider", opts.provider, "model", opts.model)

	samples, err := dataset.NewLoader(opts.datasetPath).LoadSample(opts.sampleSize)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "samples", len(samples))

	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	slog.Info("Processing samples", "concurrency", opts.concurrency)

	evalResults := make([]metrics.EvaluationResult, len(samples))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, opts.concurrency)

	for i, sample := range samples {
		wg.Add(1)
		go func(idx int, sample dataset.Sample) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing sample", "id", sample.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(samples)))
			evalResults[idx] = processSample(ctx, p, opts.datasetPath, sample)
		}(i, sample)
	}
	wg.Wait()

	agg := metrics.AggregateEvaluationResults(evalResults, opts.provider, opts.model)
	agg.PrintSummary(out)

	path, err := results.SaveToYAML(opts.outputDir, results.EvalConfig{
		Provider:      opts.provider,
		Model:         opts.model,
		DatasetPath:   opts.datasetPath,
		SampleSize:    len(samples),
		CaptureWidth:  opts.capture.Width,
		CaptureHeight: opts.capture.Height,
		CaptureScale:  opts.scale,
	}, agg)
	if err != nil {
		return agg, "", err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	return agg, path, nil
}

func processSample(ctx context.Context, p *pipeline.Pipeline, datasetPath string, sample dataset.Sample) (result metrics.EvaluationResult) {
	result = metrics.EvaluationResult{
		ID:           sample.ID,
		ExpectedName: sample.ExpectedName,
	}
	start := time.Now()
	defer func() {
		result.ProcessingTime = time.Since(start)
	}()

	frame, err := loadFrame(ctx, sample.ResolveFramePath(datasetPath))
	if err != nil {
		result.Outcome = metrics.OutcomeFailed
		result.Error = err.Error()
		return result
	}

	// each sample gets its own overlay so runs never supersede each other
	machine := p.NewMachine()
	lookup, _ := machine.IdentifyFromRegion(ctx, overlay.RegionRequest{
		Scene: capture.FullFrameScene(frame, sample.Viewport(frame.Bounds())),
		Point: sample.Point(),
	})
	result.FinalState = string(machine.State())
	result.Outcome, result.ResolvedName = metrics.Classify(sample.ExpectedName, lookup)

	switch r := lookup.(type) {
	case models.Found:
		result.DetectedText = r.DetectedName
	case models.NotFound:
		result.DetectedText = r.Query
	case models.Failed:
		result.FailureKind = string(r.Failure.Kind)
		result.Error = r.Failure.Error()
	}
	if result.DetectedText != "" {
		result.TextSimilarity = metrics.TextSimilarity(sample.ExpectedName, result.DetectedText)
	}
	return result
}

func loadFrame(ctx context.Context, location string) (image.Image, error) {
	var data []byte
	if dataset.IsRemotePath(location) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create frame request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download frame: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to download frame: HTTP %d", resp.StatusCode)
		}
		if data, err = io.ReadAll(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read frame data: %w", err)
		}
	} else {
		var err error
		if data, err = os.ReadFile(location); err != nil {
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}
	}

	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", location, err)
	}
	return frame, nil
}
