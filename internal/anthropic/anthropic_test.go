package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cardlens/cardlens/internal/anthropic"
	"github.com/cardlens/cardlens/internal/providers"
)

func TestRecognizeSendsImageAndCollectsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("expected api key header, got %q", got)
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("expected anthropic-version header")
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Type   string `json:"type"`
					Text   string `json:"text"`
					Source struct {
						MediaType string `json:"media_type"`
						Data      string `json:"data"`
					} `json:"source"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", body.Model)
		}
		if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 {
			t.Fatalf("unexpected message shape: %+v", body.Messages)
		}
		img := body.Messages[0].Content[0]
		if img.Type != "image" || img.Source.MediaType != "image/png" || img.Source.Data != "aGVsbG8=" {
			t.Errorf("unexpected image block: %+v", img)
		}
		if txt := body.Messages[0].Content[1]; txt.Type != "text" || txt.Text != "read it" {
			t.Errorf("unexpected text block: %+v", txt)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Lightning "},{"type":"tool_use"},{"type":"text","text":"Bolt"}]}`))
	}))
	t.Cleanup(server.Close)

	provider := anthropic.New("secret", server.URL, time.Second)
	fragments, err := provider.Recognize(context.Background(), providers.Request{
		Model:       "test-model",
		Prompt:      "read it",
		ImageBase64: "aGVsbG8=",
		MediaType:   "image/png",
	})
	if err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
	if len(fragments) != 2 || fragments[0] != "Lightning " || fragments[1] != "Bolt" {
		t.Fatalf("unexpected fragments: %q", fragments)
	}
}

func TestRecognizeStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := anthropic.New("bad", server.URL, time.Second).Recognize(context.Background(), providers.Request{})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", statusErr.StatusCode)
	}
}
