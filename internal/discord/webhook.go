package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
)

const (
	colorRed   = 15158332 // 0xE74C3C
	colorGreen = 5763719  // 0x57F287

	defaultWebhookTimeout = 10 * time.Second
	maxRetries            = 3
)

// WebhookPayload represents a Discord webhook message
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed represents a Discord embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// RunSummary is what a notification reports about a collection run.
type RunSummary struct {
	RunID     string
	Processed int
	Failed    int
	Examples  int
	Elapsed   time.Duration
	Output    string
}

func summaryFields(s RunSummary) []EmbedField {
	return []EmbedField{
		{Name: "Matches Processed", Value: humanize.Comma(int64(s.Processed)), Inline: true},
		{Name: "Examples", Value: humanize.Comma(int64(s.Examples)), Inline: true},
		{Name: "Failed Requests", Value: humanize.Comma(int64(s.Failed)), Inline: true},
		{Name: "Elapsed", Value: formatDuration(s.Elapsed), Inline: true},
	}
}

// NewRunCompletePayload creates the payload sent after a successful run.
func NewRunCompletePayload(s RunSummary) WebhookPayload {
	embed := Embed{
		Title:     "✅ Collection Complete",
		Color:     colorGreen,
		Fields:    summaryFields(s),
		Footer:    &EmbedFooter{Text: "Run " + s.RunID},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.Output != "" {
		embed.Description = "Dataset written to `" + s.Output + "`"
	}
	return WebhookPayload{Embeds: []Embed{embed}}
}

// NewRunAbortedPayload creates the payload sent when a run stops early.
func NewRunAbortedPayload(s RunSummary, reason string) WebhookPayload {
	return WebhookPayload{
		Content: "@here Collection aborted",
		Embeds: []Embed{{
			Title:       "🛑 Collection Aborted",
			Description: reason,
			Color:       colorRed,
			Fields:      summaryFields(s),
			Footer:      &EmbedFooter{Text: "Run " + s.RunID},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

// WebhookClient sends notifications to a Discord webhook
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: defaultWebhookTimeout},
	}
}

func (c *WebhookClient) SendRunComplete(ctx context.Context, s RunSummary) error {
	return c.sendPayload(ctx, NewRunCompletePayload(s))
}

func (c *WebhookClient) SendRunAborted(ctx context.Context, s RunSummary, reason string) error {
	return c.sendPayload(ctx, NewRunAbortedPayload(s, reason))
}

// sendPayload posts payload, retrying when Discord rate limits the webhook.
func (c *WebhookClient) sendPayload(ctx context.Context, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusNoContent, http.StatusOK:
			return nil
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfter(resp.Header, body)):
				continue
			}
		default:
			return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
		}
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}

// retryAfter prefers the JSON retry_after (seconds, fractional) over the
// Retry-After header. Defaults to one second.
func retryAfter(h http.Header, body []byte) time.Duration {
	var rl struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if json.Unmarshal(body, &rl) == nil && rl.RetryAfter > 0 {
		return time.Duration(rl.RetryAfter * float64(time.Second))
	}
	if seconds, err := strconv.Atoi(h.Get("Retry-After")); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return time.Second
}

// formatDuration formats a duration as "Xh Ym" (e.g., 18h 32m)
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
