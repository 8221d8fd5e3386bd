package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/ratelimit"
)

const (
	DefaultBaseURL   = "https://api.scryfall.com"
	defaultUserAgent = "cardlens/0.1"
)

// ErrNotFound is returned when the card database has no match for a name
var ErrNotFound = errors.New("card not found")

// ImageURIs holds the image variants of a card or card face
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
	PNG    string `json:"png"`
}

// Preferred returns the normal image, falling back to large
func (u *ImageURIs) Preferred() string {
	if u == nil {
		return ""
	}
	if u.Normal != "" {
		return u.Normal
	}
	return u.Large
}

// Face is one face of a multi-faced card
type Face struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost"`
	TypeLine   string     `json:"type_line"`
	OracleText string     `json:"oracle_text"`
	ImageURIs  *ImageURIs `json:"image_uris"`
}

// Card models the card object returned by the card database
type Card struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ManaCost    string     `json:"mana_cost"`
	TypeLine    string     `json:"type_line"`
	OracleText  string     `json:"oracle_text"`
	Set         string     `json:"set"`
	SetName     string     `json:"set_name"`
	Rarity      string     `json:"rarity"`
	ScryfallURI string     `json:"scryfall_uri"`
	ImageURIs   *ImageURIs `json:"image_uris"`
	CardFaces   []Face     `json:"card_faces"`
}

// Client resolves card names against the card database. All clients sharing
// a Limiter are paced together.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter shares a process-wide limiter with the client.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a card database client. Without WithLimiter the client
// gets its own limiter at the default interval.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("card database base url required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(ratelimit.DefaultInterval)
	}
	return c, nil
}

// FetchNamed performs a fuzzy name lookup. It returns ErrNotFound on a 404
// and a *models.Failure for any other failure.
func (c *Client) FetchNamed(ctx context.Context, name string) (*Card, error) {
	endpoint, err := url.Parse(c.baseURL + "/cards/named")
	if err != nil {
		return nil, models.NewServiceError(0, "", fmt.Errorf("parse card database url: %w", err))
	}
	params := url.Values{}
	params.Set("fuzzy", name)
	endpoint.RawQuery = params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewServiceError(0, "", fmt.Errorf("wait for rate limiter: %w", err))
	}
	c.logger.Debug("Querying card database", "query", name, "paced_at", c.limiter.Last())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, models.NewServiceError(0, "", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, models.NewServiceError(0, "", fmt.Errorf("execute request (latency=%v): %w", latency, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Info("Card not found", "query", name, "latency", latency)
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Card database returned error status", "query", name, "status", resp.StatusCode, "latency", latency)
		return nil, models.NewServiceError(resp.StatusCode, string(body), nil)
	}

	var card Card
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, models.NewServiceError(resp.StatusCode, "", fmt.Errorf("decode card response: %w", err))
	}
	c.logger.Info("Card resolved", "query", name, "name", card.Name, "latency", latency)
	return &card, nil
}

// Resolve looks up a normalized name and converts the outcome into a
// LookupResult. An empty name resolves to NotFound without a request.
func (c *Client) Resolve(ctx context.Context, name string) models.LookupResult {
	if strings.TrimSpace(name) == "" {
		return models.NotFound{Query: name}
	}

	card, err := c.FetchNamed(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return models.NotFound{Query: name}
	}
	if err != nil {
		return models.Failed{Failure: models.AsFailure(err)}
	}
	return models.Found{Card: card.Record()}
}
