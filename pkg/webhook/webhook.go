// Package webhook posts daily summaries to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/c4r-dev/actilog/pkg/analyzer"
	"github.com/c4r-dev/actilog/pkg/config"
	"github.com/c4r-dev/actilog/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = config.DefaultWebhookTimeout

// maxResponseBody caps how much of a webhook response is kept.
const maxResponseBody = 1024 * 1024

// Client sends daily summaries to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a daily summary to a webhook endpoint. The body is the same
// JSON written to the daily-summary artifact.
func (c *Client) Send(ctx context.Context, summary *analyzer.DailySummary, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := output.MarshalSummary(summary)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal summary: %w", err))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "actilog-webhook")
	req.Header.Set("X-Actilog-Date", summary.Date)
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return fail(fmt.Errorf("failed to read response: %w", err))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}

// ShouldFire reports whether a webhook with the given trigger fires for summary.
func ShouldFire(trigger config.WebhookTrigger, summary *analyzer.DailySummary) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return summary.HasRecommendations()
	}
}

// Notify sends summary to every configured webhook whose trigger fires.
// Failures are logged and counted, never returned.
func (c *Client) Notify(ctx context.Context, hooks []config.WebhookConfig, summary *analyzer.DailySummary, logger *log.Logger) (sent, failed int) {
	for _, wh := range hooks {
		if !ShouldFire(wh.Trigger, summary) {
			logger.Debug("webhook skipped", "name", webhookName(wh), "trigger", wh.Trigger)
			continue
		}

		resp := c.Send(ctx, summary, SendOptions{URL: wh.URL, Token: wh.Token, Timeout: wh.Timeout})
		if !resp.Success() {
			failed++
			logger.Warn("webhook failed", "name", webhookName(wh), "status", resp.StatusCode, "err", resp.Error)
			continue
		}
		sent++
		logger.Info("webhook sent", "name", webhookName(wh), "status", resp.StatusCode, "duration", resp.Duration.Round(time.Millisecond))
	}
	return sent, failed
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}
