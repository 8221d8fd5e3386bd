package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/cardlens/cardlens/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

// Gemini is a vision provider for Google Gemini
type Gemini struct {
	apiKey string
	opts   []option.ClientOption
}

// New returns a new Gemini provider. Extra client options are passed to the
// SDK, e.g. option.WithEndpoint.
func New(apiKey string, opts ...option.ClientOption) *Gemini {
	return &Gemini{apiKey: apiKey, opts: opts}
}

// Recognize sends the image and prompt as one content request
func (g *Gemini) Recognize(ctx context.Context, config providers.Request) ([]string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	modelName := config.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}

	data, err := decodeImage(config.ImageBase64)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(config.MediaType, "image/")
	if format == "" {
		format = "png"
	}

	resp, err := model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(config.Prompt))
	if err != nil {
		return nil, statusError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}

	var fragments []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fragments = append(fragments, string(txt))
		}
	}
	return fragments, nil
}

// statusError converts SDK HTTP errors into providers.StatusError so status
// handling is shared with the other providers
func statusError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		body := apiErr.Message
		if body == "" {
			body = apiErr.Body
		}
		return &providers.StatusError{Provider: "gemini", StatusCode: apiErr.Code, Body: body}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}

func decodeImage(b64 string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, nil
}
