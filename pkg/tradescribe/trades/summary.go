// Package trades caches trade-journal summaries fetched from the
// trade-summary webhook. Summaries are cached per session with no TTL:
// once fetched, a summary lives until the process restarts. A fresh fetch
// overwrites the slot outright, never merges.
package trades

import (
	"context"
	"log/slog"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/identity"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/state"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/transcript"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/webhook"
)

// Gateway is the webhook surface the cache needs.
type Gateway interface {
	Send(ctx context.Context, action string, payload map[string]any, target webhook.Target) (*webhook.Response, error)
}

// Cache is the per-session trade-summary cache.
type Cache struct {
	gateway   Gateway
	store     transcript.Store
	summaries *state.Store[string]
	logger    *slog.Logger
}

// New creates a Cache backed by the given gateway and transcript store.
func New(gateway Gateway, store transcript.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		gateway:   gateway,
		store:     store,
		summaries: state.NewStore[string](),
		logger:    logger.With("component", "trades"),
	}
}

// Get returns the trade summary for the session, fetching it from the
// trade-summary webhook on a cache miss. A failed fetch returns
// ("", false) and caches nothing, so the next request retries.
func (c *Cache) Get(ctx context.Context, user identity.User, sessionID string) (string, bool) {
	if summary, ok := c.summaries.Get(sessionID); ok {
		return summary, true
	}

	resp, err := c.gateway.Send(ctx, "get_trade_summary", map[string]any{
		"discord_id": user.ID,
	}, webhook.TargetTradeSummary)
	if err != nil {
		c.logger.Error("trade summary fetch failed", "user_id", user.ID, "error", err)
		return "", false
	}

	summary := resp.AsText()
	if summary == "" {
		c.logger.Error("trade summary response empty", "user_id", user.ID)
		return "", false
	}

	c.summaries.Set(sessionID, summary)
	return summary, true
}

// Persist appends the summary to the user's durable transcript as an
// AI-typed message. Independent of the in-memory cache and idempotent with
// respect to it.
func (c *Cache) Persist(ctx context.Context, user identity.User, summary string) {
	if err := c.store.AppendTradeSummary(ctx, user.ID, summary); err != nil {
		c.logger.Error("trade summary persist failed", "user_id", user.ID, "error", err)
	}
}

// Invalidate drops the cached summary for the session.
func (c *Cache) Invalidate(sessionID string) {
	c.summaries.Delete(sessionID)
}
