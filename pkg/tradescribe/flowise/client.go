// Package flowise implements the client for the Flowise prediction API,
// the conversational-AI backend behind the bot. Every user message is
// forwarded live; predictions are never cached.
package flowise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrBackend indicates the prediction call failed.
var ErrBackend = errors.New("flowise: prediction failed")

// Config holds the Flowise endpoint settings.
type Config struct {
	// URL is the prediction endpoint.
	URL string

	// APIKey is sent as a bearer token on every request.
	APIKey string
}

// Client calls the Flowise prediction endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Flowise client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger.With("component", "flowise"),
	}
}

// Reply is a Flowise prediction. Depending on the flow configuration the
// answer arrives in either the text or answer field.
type Reply struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
}

// Content returns the usable reply text, preferring text over answer.
// Empty when the flow produced neither.
func (r *Reply) Content() string {
	if r == nil {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	return r.Answer
}

// predictionRequest is the wire format of a prediction call.
type predictionRequest struct {
	Question       string         `json:"question"`
	OverrideConfig overrideConfig `json:"overrideConfig"`
}

type overrideConfig struct {
	SessionID string `json:"sessionId"`
}

// Ask sends the question to Flowise scoped to the given session ID.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (*Reply, error) {
	body, err := json.Marshal(predictionRequest{
		Question:       question,
		OverrideConfig: overrideConfig{SessionID: sessionID},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("prediction request failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("prediction rejected",
			"session_id", sessionID, "status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		c.logger.Error("prediction decode failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: decoding response: %v", ErrBackend, err)
	}

	return &reply, nil
}
