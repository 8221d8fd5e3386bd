// Package pipeline assembles the identification components from
// configuration.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/option"

	"github.com/cardlens/cardlens/internal/anthropic"
	"github.com/cardlens/cardlens/internal/capture"
	"github.com/cardlens/cardlens/internal/catalog"
	"github.com/cardlens/cardlens/internal/config"
	"github.com/cardlens/cardlens/internal/gemini"
	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/openai"
	"github.com/cardlens/cardlens/internal/overlay"
	"github.com/cardlens/cardlens/internal/providers"
	"github.com/cardlens/cardlens/internal/ratelimit"
)

// Pipeline holds the components shared by every overlay of the process.
// There is exactly one Limiter, so all card database traffic is paced
// together.
type Pipeline struct {
	Capturer   *capture.Capturer
	Recognizer overlay.Recognizer
	Catalog    *catalog.Client
	Limiter    *ratelimit.Limiter
}

// NewVision returns the vision provider selected by cfg
func NewVision(cfg *config.Config) (providers.Vision, error) {
	switch cfg.OCR.Provider {
	case config.ProviderAnthropic, "":
		return anthropic.New(cfg.OCR.AnthropicAPIKey, cfg.OCR.BaseURL, cfg.HTTPTimeout), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.OCR.OpenAIAPIKey, cfg.OCR.BaseURL, cfg.HTTPTimeout), nil
	case config.ProviderGemini:
		var opts []option.ClientOption
		if cfg.OCR.BaseURL != "" {
			opts = append(opts, option.WithEndpoint(cfg.OCR.BaseURL))
		}
		return gemini.New(cfg.OCR.GeminiAPIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.OCR.Provider)
	}
}

// New builds the pipeline. Without an OCR credential region lookups fail
// with an invalid credential error while name lookups keep working.
func New(cfg *config.Config) (*Pipeline, error) {
	limiter := ratelimit.New(cfg.Catalog.LookupInterval)
	slog.Debug("Card database pacing", "interval", limiter.Interval())

	client, err := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithLimiter(limiter),
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create card database client: %w", err)
	}

	var recognizer overlay.Recognizer = missingCredential{provider: cfg.OCR.Provider}
	if cfg.APIKey() != "" {
		vision, err := NewVision(cfg)
		if err != nil {
			return nil, err
		}
		recognizer = ocr.NewService(vision, cfg.OCR.Model)
	} else {
		slog.Warn("No OCR API key configured, region lookups will fail", "provider", cfg.OCR.Provider)
	}

	return &Pipeline{
		Capturer:   capture.NewCapturer(cfg.CaptureSize(), cfg.Capture.Scale),
		Recognizer: recognizer,
		Catalog:    client,
		Limiter:    limiter,
	}, nil
}

// NewMachine creates an overlay wired to the shared components
func (p *Pipeline) NewMachine(opts ...overlay.Option) *overlay.Machine {
	return overlay.New(p.Capturer, p.Recognizer, p.Catalog, opts...)
}

type missingCredential struct {
	provider string
}

func (m missingCredential) Recognize(ctx context.Context, payload string) (ocr.Result, error) {
	failure := models.NewInvalidCredential(0)
	failure.Cause = fmt.Errorf("no API key configured for %s", m.provider)
	return ocr.Result{}, failure
}
