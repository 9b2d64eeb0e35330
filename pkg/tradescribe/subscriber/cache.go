// Package subscriber gatekeeps access to the bot. Subscription status lives
// in an external registry reached through the automation webhook; results
// are cached per user for a fixed TTL so repeated messages don't hammer
// the registry.
//
// A failed registry check is treated as "not a subscriber" and deliberately
// not cached: the next message retries instead of being locked out for a
// full TTL window.
package subscriber

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/identity"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/state"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/webhook"
)

// DefaultTTL is how long a subscriber check stays cached.
const DefaultTTL = 24 * time.Hour

// entry is one cached subscriber check.
type entry struct {
	isSubscriber bool
	checkedAt    time.Time
}

// Gateway is the webhook surface the cache needs.
type Gateway interface {
	Send(ctx context.Context, action string, payload map[string]any, target webhook.Target) (*webhook.Response, error)
}

// Cache is the time-bounded per-user subscription cache.
type Cache struct {
	gateway Gateway
	entries *state.Store[entry]
	ttl     time.Duration
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Cache backed by the given gateway.
func New(gateway Gateway, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		gateway: gateway,
		entries: state.NewStore[entry](),
		ttl:     ttl,
		logger:  logger.With("component", "subscriber"),
		now:     time.Now,
	}
}

// IsAuthorized reports whether the user may use the bot. Cache hits inside
// the TTL answer without a network call; misses ask the registry and cache
// the verdict. Registry failure denies without caching.
func (c *Cache) IsAuthorized(ctx context.Context, user identity.User) bool {
	now := c.now()

	if e, ok := c.entries.Get(user.ID); ok && now.Sub(e.checkedAt) < c.ttl {
		return e.isSubscriber
	}

	resp, err := c.gateway.Send(ctx, "check_subscriber", map[string]any{
		"discord_id":            user.ID,
		"discord_name":          user.Name,
		"discord_discriminator": user.Discriminator,
	}, webhook.TargetAutomation)
	if err != nil {
		c.logger.Error("subscriber check failed", "user_id", user.ID, "error", err)
		return false
	}

	isSubscriber := resp.Bool("is_subscriber")
	c.entries.Set(user.ID, entry{isSubscriber: isSubscriber, checkedAt: now})
	return isSubscriber
}

// Clear drops every cached entry. Called by the daily sweep.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.entries.Len() }
