package providers

import (
	"context"
	"fmt"
)

// Request represents a single image-to-text request for a vision provider
type Request struct {
	Model       string
	Prompt      string
	ImageBase64 string // raw base64, no data URL prefix
	MediaType   string // e.g. "image/png"
	MaxTokens   int
	Temperature float64
}

// Vision defines the interface for a vision-capable LLM provider.
// Recognize returns every text fragment of the response in order.
type Vision interface {
	Recognize(ctx context.Context, req Request) ([]string, error)
}

// StatusError is returned by providers when the service answers with a
// non-success HTTP status
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
