package opendota

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/logging"
)

const (
	DefaultBaseURL = "https://api.opendota.com/api"
	DefaultDelay   = 2 * time.Second
	DefaultTimeout = 30 * time.Second
)

// ErrEmptyMatch is returned when a match lookup succeeds but carries no
// record, e.g. a JSON null body.
var ErrEmptyMatch = errors.New("empty match record")

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("opendota %s: status %d", e.Endpoint, e.StatusCode)
}

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL string
	APIKey  string        // empty means anonymous free tier
	Delay   time.Duration // pause after every successful call
	Timeout time.Duration
}

// Client is a polite OpenDota API client. It makes one request at a time and
// sleeps a fixed delay after each success; it never retries.
type Client struct {
	baseURL    string
	apiKey     string
	delay      time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDelay overrides the post-success delay.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// NewClient creates a client from cfg; zero fields take the defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		delay:      cfg.Delay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET on baseURL+endpoint and decodes the JSON body into v.
func (c *Client) Fetch(ctx context.Context, endpoint string, v any) error {
	logger := logging.For("opendota")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("endpoint", endpoint).Msg("request failed")
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("unexpected status")
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		logger.Warn().Err(err).Str("endpoint", endpoint).Msg("decode failed")
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}

	return c.pause(ctx)
}

func (c *Client) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetHeroes fetches the hero list.
func (c *Client) GetHeroes(ctx context.Context) ([]Hero, error) {
	var heroes []Hero
	if err := c.Fetch(ctx, "/heroes", &heroes); err != nil {
		return nil, err
	}
	return heroes, nil
}

// GetItems fetches the item constants, keyed by internal item name.
func (c *Client) GetItems(ctx context.Context) (map[string]Item, error) {
	var items map[string]Item
	if err := c.Fetch(ctx, "/constants/items", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetPublicMatches lists recent public matches at or above minRank. A
// non-zero lessThanMatchID pages backwards from that match.
func (c *Client) GetPublicMatches(ctx context.Context, minRank int, lessThanMatchID int64) ([]PublicMatch, error) {
	endpoint := "/publicMatches?min_rank=" + strconv.Itoa(minRank)
	if lessThanMatchID > 0 {
		endpoint += "&less_than_match_id=" + strconv.FormatInt(lessThanMatchID, 10)
	}

	var matches []PublicMatch
	if err := c.Fetch(ctx, endpoint, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// GetMatch fetches the detail record of one match.
func (c *Client) GetMatch(ctx context.Context, matchID int64) (*Match, error) {
	var match Match
	if err := c.Fetch(ctx, "/matches/"+strconv.FormatInt(matchID, 10), &match); err != nil {
		return nil, err
	}
	if match.MatchID == 0 {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrEmptyMatch)
	}
	return &match, nil
}
