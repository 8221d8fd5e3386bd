package ocr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/pngcheck"
	"github.com/cardlens/cardlens/internal/providers"
)

// NoneToken is what the model answers when no card name is legible
const NoneToken = "NONE"

// Result is the outcome of a recognition attempt that reached the service
type Result struct {
	Text     string
	Detected bool
}

// Service extracts a card name from a capture using a vision provider
type Service struct {
	provider providers.Vision
	model    string
}

// NewService creates a new OCR service. The provider carries the credential.
func NewService(provider providers.Vision, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Recognize sends one request for the capture payload (base64 PNG, data URL
// accepted). A missing or NONE answer is not an error: it returns a Result
// with Detected false. Every error returned is a *models.Failure.
func (s *Service) Recognize(ctx context.Context, payload string) (Result, error) {
	fragments, err := s.provider.Recognize(ctx, providers.Request{
		Model:       s.model,
		Prompt:      s.buildOCRPrompt(),
		ImageBase64: strings.TrimPrefix(payload, pngcheck.DataURLPrefix),
		MediaType:   "image/png",
		MaxTokens:   64,
		Temperature: 0.0, // Zero temperature for exact OCR
	})
	if err != nil {
		failure := classify(err)
		slog.Warn("Text recognition failed", "kind", failure.Kind, "status", failure.StatusCode, "err", err)
		return Result{}, failure
	}

	text := strings.TrimSpace(strings.Join(fragments, ""))
	if text == "" || strings.EqualFold(text, NoneToken) {
		slog.Info("No card name detected in capture")
		return Result{}, nil
	}

	slog.Info("Extracted card name", "text", text, "length", len(text))
	return Result{Text: text, Detected: true}, nil
}

func (s *Service) buildOCRPrompt() string {
	return `This image is a small crop of a video or picture showing one or more trading cards.

Return ONLY the name of the single card whose name is closest to the center of the image, exactly as printed on the card.
Do not add any commentary, punctuation, quotes, or explanation.
If no card name is legible, respond with exactly: ` + NoneToken
}

// classify maps provider errors onto the failure taxonomy
func classify(err error) *models.Failure {
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		return models.NewServiceError(0, "", err)
	}

	switch statusErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewInvalidCredential(statusErr.StatusCode)
	case http.StatusTooManyRequests:
		return models.NewRateLimited(statusErr.StatusCode)
	default:
		return models.NewServiceError(statusErr.StatusCode, statusErr.Body, nil)
	}
}
