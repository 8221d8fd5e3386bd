package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/providers"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-latest"
	apiVersion     = "2023-06-01"
)

// Anthropic is a vision provider backed by the Messages API
type Anthropic struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New returns a new Anthropic provider. An empty baseURL uses the public API.
func New(apiKey, baseURL string, timeout time.Duration) *Anthropic {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Anthropic{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Recognize sends the image and prompt as a single user message
func (a *Anthropic) Recognize(ctx context.Context, config providers.Request) ([]string, error) {
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":       model,
		"max_tokens":  maxTokens,
		"temperature": config.Temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image",
						"source": map[string]string{
							"type":       "base64",
							"media_type": config.MediaType,
							"data":       config.ImageBase64,
						},
					},
					{
						"type": "text",
						"text": config.Prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &providers.StatusError{Provider: "anthropic", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	fragments := make([]string, 0, len(response.Content))
	for _, block := range response.Content {
		if block.Type == "text" {
			fragments = append(fragments, block.Text)
		}
	}
	return fragments, nil
}
