// Package webhook implements the outbound client for the automation
// webhooks. Every remote operation is identified by an action tag injected
// into the JSON payload; the webhook side dispatches on it.
//
// The client is stateless and never retries. A non-200 status or transport
// error is logged and surfaced as an error; callers degrade gracefully on
// failure instead of propagating it further.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Target selects which webhook endpoint receives the request.
type Target int

const (
	// TargetAutomation is the default automation endpoint
	// (check_subscriber, log_chat, fetch_chat_history).
	TargetAutomation Target = iota

	// TargetTradeSummary is the trade-summary endpoint (get_trade_summary).
	TargetTradeSummary
)

// ErrGateway indicates the webhook call failed (non-200 or transport error).
var ErrGateway = errors.New("webhook: request failed")

// Config holds the webhook endpoint URLs.
type Config struct {
	// AutomationURL is the default automation endpoint.
	AutomationURL string

	// TradeSummaryURL is the trade-summary endpoint.
	TradeSummaryURL string
}

// Client issues single-shot JSON POST requests to the automation webhooks.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a webhook client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "webhook"),
	}
}

// Response is a successful webhook reply. Exactly one of Data or Text is
// populated, depending on the response content type.
type Response struct {
	// Data is the decoded JSON object, nil for plain-text replies.
	Data map[string]any

	// Text is the raw body for non-JSON replies.
	Text string
}

// Send POSTs the payload with the given action tag to the target endpoint.
// The action field is written into the payload before transmission
// (last-write-wins if the caller set one). Returns ErrGateway-wrapped errors
// on any failure; there is no retry.
func (c *Client) Send(ctx context.Context, action string, payload map[string]any, target Target) (*Response, error) {
	url := c.cfg.AutomationURL
	if target == TargetTradeSummary {
		url = c.cfg.TradeSummaryURL
	}

	if payload == nil {
		payload = map[string]any{}
	}
	payload["action"] = action

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload for %s: %v", ErrGateway, action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ErrGateway, action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	reqID := uuid.NewString()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("webhook request failed",
			"request_id", reqID, "action", action, "url", url, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrGateway, action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("webhook response read failed",
			"request_id", reqID, "action", action, "url", url, "error", err)
		return nil, fmt.Errorf("%w: %s: reading response: %v", ErrGateway, action, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("webhook request rejected",
			"request_id", reqID, "action", action, "url", url,
			"status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("%w: %s: status %d", ErrGateway, action, resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "application/json") {
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			c.logger.Error("webhook response decode failed",
				"request_id", reqID, "action", action, "url", url, "error", err)
			return nil, fmt.Errorf("%w: %s: decoding response: %v", ErrGateway, action, err)
		}
		return &Response{Data: data}, nil
	}

	return &Response{Text: string(raw)}, nil
}

// ---------- Response accessors ----------

// Bool returns the named boolean field, false if absent or not a bool.
func (r *Response) Bool(key string) bool {
	if r == nil || r.Data == nil {
		return false
	}
	v, _ := r.Data[key].(bool)
	return v
}

// String returns the named string field, "" if absent or not a string.
func (r *Response) String(key string) string {
	if r == nil || r.Data == nil {
		return ""
	}
	v, _ := r.Data[key].(string)
	return v
}

// List returns the named array field, nil if absent or not an array.
func (r *Response) List(key string) []any {
	if r == nil || r.Data == nil {
		return nil
	}
	v, _ := r.Data[key].([]any)
	return v
}

// AsText returns the reply as free text: the raw body for plain-text
// replies, else the "summary" field of a JSON reply.
func (r *Response) AsText() string {
	if r == nil {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	return r.String("summary")
}
