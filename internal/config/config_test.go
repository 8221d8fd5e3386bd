package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadWithEnv("", envMap(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv returned error: %v", err)
	}
	if cfg.OCR.Provider != ProviderAnthropic {
		t.Errorf("Expected anthropic provider, got %q", cfg.OCR.Provider)
	}
	if cfg.Capture.Width != 125 || cfg.Capture.Height != 60 || cfg.Capture.Scale != 2 {
		t.Errorf("unexpected capture defaults %+v", cfg.Capture)
	}
	if cfg.Catalog.LookupInterval != 100*time.Millisecond {
		t.Errorf("Expected 100ms interval, got %v", cfg.Catalog.LookupInterval)
	}
	if cfg.Catalog.BaseURL != "https://api.scryfall.com" {
		t.Errorf("unexpected card database url %q", cfg.Catalog.BaseURL)
	}
	if err := cfg.Validate(false); err != nil {
		t.Errorf("defaults should validate without OCR: %v", err)
	}
	if err := cfg.Validate(true); err == nil {
		t.Error("Expected missing API key to fail validation")
	}
}

func TestFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardlens.yaml")
	content := `ocr:
  provider: openai
  model: gpt-4o-mini
  openai_api_key: file-key
catalog:
  lookup_interval: 250ms
capture:
  width: 200
  scale: 3
http_timeout: 5s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithEnv(path, envMap(map[string]string{
		"OPENAI_API_KEY":          "env-key",
		"CARDLENS_CAPTURE_HEIGHT": "80",
		"LOG_FORMAT":              "json",
		"CARDLENS_OCR_MODEL":      "  ",
	}))
	if err != nil {
		t.Fatalf("LoadWithEnv returned error: %v", err)
	}

	if cfg.OCR.Provider != ProviderOpenAI || cfg.OCR.Model != "gpt-4o-mini" {
		t.Errorf("unexpected OCR settings %+v", cfg.OCR)
	}
	if cfg.APIKey() != "env-key" {
		t.Errorf("Expected environment to override file key, got %q", cfg.APIKey())
	}
	if cfg.Catalog.LookupInterval != 250*time.Millisecond || cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("durations not parsed: %v %v", cfg.Catalog.LookupInterval, cfg.HTTPTimeout)
	}
	if got := cfg.CaptureSize(); got.Width != 200 || got.Height != 80 || cfg.Capture.Scale != 3 {
		t.Errorf("unexpected capture settings %+v scale %d", got, cfg.Capture.Scale)
	}
	if cfg.SlogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("unexpected log settings %+v", cfg.Log)
	}
	if err := cfg.Validate(true); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestInvalidEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad width", env: map[string]string{"CARDLENS_CAPTURE_WIDTH": "wide"}},
		{name: "bad interval", env: map[string]string{"CARDLENS_LOOKUP_INTERVAL": "soon"}},
		{name: "bad timeout", env: map[string]string{"CARDLENS_HTTP_TIMEOUT": "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadWithEnv("", envMap(tt.env)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "provider", mutate: func(c *Config) { c.OCR.Provider = "tesseract" }, want: "unsupported OCR provider"},
		{name: "interval", mutate: func(c *Config) { c.Catalog.LookupInterval = 0 }, want: "lookup interval"},
		{name: "capture", mutate: func(c *Config) { c.Capture.Scale = 0 }, want: "capture size"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, want: "log format"},
		{name: "base url", mutate: func(c *Config) { c.Catalog.BaseURL = " " }, want: "base url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate(false)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil)); err == nil {
		t.Error("Expected error for missing config file")
	}
}
