// Package config loads cardlens settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cardlens/cardlens/internal/capture"
	"github.com/cardlens/cardlens/internal/catalog"
	"github.com/cardlens/cardlens/internal/ratelimit"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

type OCR struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	BaseURL         string `yaml:"base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
}

type Catalog struct {
	BaseURL        string        `yaml:"base_url"`
	LookupInterval time.Duration `yaml:"lookup_interval"`
}

type Capture struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Scale  int `yaml:"scale"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds every setting of the service and the CLI
type Config struct {
	OCR         OCR           `yaml:"ocr"`
	Catalog     Catalog       `yaml:"catalog"`
	Capture     Capture       `yaml:"capture"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Log         Log           `yaml:"log"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		OCR: OCR{Provider: ProviderAnthropic},
		Catalog: Catalog{
			BaseURL:        catalog.DefaultBaseURL,
			LookupInterval: ratelimit.DefaultInterval,
		},
		Capture: Capture{
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
			Scale:  capture.DefaultScale,
		},
		HTTPTimeout: 30 * time.Second,
		Log:         Log{Level: "info", Format: "text"},
	}
}

// Load reads path (optional) and then the process environment
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"CARDLENS_OCR_PROVIDER": &c.OCR.Provider,
		"CARDLENS_OCR_MODEL":    &c.OCR.Model,
		"CARDLENS_OCR_BASE_URL": &c.OCR.BaseURL,
		"ANTHROPIC_API_KEY":     &c.OCR.AnthropicAPIKey,
		"OPENAI_API_KEY":        &c.OCR.OpenAIAPIKey,
		"GEMINI_API_KEY":        &c.OCR.GeminiAPIKey,
		"SCRYFALL_BASE_URL":     &c.Catalog.BaseURL,
		"LOG_LEVEL":             &c.Log.Level,
		"LOG_FORMAT":            &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"CARDLENS_CAPTURE_WIDTH":  &c.Capture.Width,
		"CARDLENS_CAPTURE_HEIGHT": &c.Capture.Height,
		"CARDLENS_CAPTURE_SCALE":  &c.Capture.Scale,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"CARDLENS_LOOKUP_INTERVAL": &c.Catalog.LookupInterval,
		"CARDLENS_HTTP_TIMEOUT":    &c.HTTPTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// APIKey returns the credential of the selected OCR provider
func (c *Config) APIKey() string {
	switch c.OCR.Provider {
	case ProviderOpenAI:
		return c.OCR.OpenAIAPIKey
	case ProviderGemini:
		return c.OCR.GeminiAPIKey
	default:
		return c.OCR.AnthropicAPIKey
	}
}

// CaptureSize is the logical capture size
func (c *Config) CaptureSize() capture.Size {
	return capture.Size{Width: c.Capture.Width, Height: c.Capture.Height}
}

// SlogLevel parses Log.Level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the settings needed to talk to the external services. The
// OCR credential is only required when requireOCR is set.
func (c *Config) Validate(requireOCR bool) error {
	var errs []error

	switch c.OCR.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unsupported OCR provider: %q", c.OCR.Provider))
	}
	if requireOCR && c.APIKey() == "" {
		errs = append(errs, fmt.Errorf("no API key configured for OCR provider %q", c.OCR.Provider))
	}
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		errs = append(errs, errors.New("card database base url is empty"))
	}
	if c.Catalog.LookupInterval <= 0 {
		errs = append(errs, fmt.Errorf("lookup interval must be positive, got %v", c.Catalog.LookupInterval))
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 || c.Capture.Scale <= 0 {
		errs = append(errs, fmt.Errorf("capture size %dx%d at scale %d is invalid", c.Capture.Width, c.Capture.Height, c.Capture.Scale))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %v", c.HTTPTimeout))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format: %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
