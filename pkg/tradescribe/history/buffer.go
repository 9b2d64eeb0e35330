// Package history buffers chat exchanges per user and ships them to the
// downstream automation in batches. Every exchange is also appended to the
// durable transcript store immediately; the batch flush feeds the
// automation workflow, not durability.
//
// Flush policy: after an append, the batch goes out once the buffer holds
// FlushSize entries or its oldest entry is older than FlushAge. A confirmed
// flush clears the buffer; a failed one retains it for the next attempt.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/identity"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/state"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/transcript"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/webhook"
)

const (
	// DefaultFlushSize is the buffer length that forces a flush.
	DefaultFlushSize = 5

	// DefaultFlushAge is the buffered-entry age that forces a flush.
	DefaultFlushAge = 5 * time.Minute
)

// Gateway is the webhook surface the buffer needs.
type Gateway interface {
	Send(ctx context.Context, action string, payload map[string]any, target webhook.Target) (*webhook.Response, error)
}

// Buffer accumulates chat exchanges per user.
type Buffer struct {
	gateway   Gateway
	store     transcript.Store
	buffers   *state.Store[[]transcript.ChatLogEntry]
	flushSize int
	flushAge  time.Duration
	logger    *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// Options tunes the flush policy. Zero values take the defaults.
type Options struct {
	FlushSize int
	FlushAge  time.Duration
}

// New creates a Buffer writing durably to store and flushing through gateway.
func New(gateway Gateway, store transcript.Store, opts Options, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FlushSize <= 0 {
		opts.FlushSize = DefaultFlushSize
	}
	if opts.FlushAge <= 0 {
		opts.FlushAge = DefaultFlushAge
	}
	return &Buffer{
		gateway:   gateway,
		store:     store,
		buffers:   state.NewStore[[]transcript.ChatLogEntry](),
		flushSize: opts.FlushSize,
		flushAge:  opts.FlushAge,
		logger:    logger.With("component", "history"),
		now:       time.Now,
	}
}

// Record appends one exchange for the user: durably to the transcript store
// (failure logged, never blocking), then to the local buffer, then flushes
// the batch if the policy says so.
func (b *Buffer) Record(ctx context.Context, user identity.User, message, response string) {
	entry := transcript.ChatLogEntry{
		Message:   message,
		Response:  response,
		Timestamp: b.now(),
	}

	if err := b.store.AppendChatLog(ctx, user.ID, entry); err != nil {
		b.logger.Error("durable chat log append failed", "user_id", user.ID, "error", err)
	} else {
		b.logger.Info("chat log appended to store", "user_id", user.ID)
	}

	b.buffers.Update(user.ID, func(cur []transcript.ChatLogEntry, _ bool) []transcript.ChatLogEntry {
		return append(cur, entry)
	})

	if b.shouldFlush(user.ID) {
		b.flush(ctx, user)
	}
}

// Fetch returns the user's chat history, oldest first. A warm local buffer
// is returned as-is without network traffic; otherwise the remote history
// is fetched and becomes the local cache. Failure yields an empty history.
func (b *Buffer) Fetch(ctx context.Context, user identity.User) []transcript.ChatLogEntry {
	if buf, ok := b.buffers.Get(user.ID); ok && len(buf) > 0 {
		out := make([]transcript.ChatLogEntry, len(buf))
		copy(out, buf)
		return out
	}

	resp, err := b.gateway.Send(ctx, "fetch_chat_history", map[string]any{
		"discord_id": user.ID,
	}, webhook.TargetAutomation)
	if err != nil {
		b.logger.Error("chat history fetch failed", "user_id", user.ID, "error", err)
		return nil
	}

	var entries []transcript.ChatLogEntry
	for _, raw := range resp.List("chat_history") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		msg, _ := m["message"].(string)
		res, _ := m["response"].(string)
		ts, _ := m["timestamp"].(string)
		entries = append(entries, transcript.ChatLogEntry{
			Message:   msg,
			Response:  res,
			Timestamp: parseTimestamp(ts),
		})
	}

	if len(entries) > 0 {
		b.buffers.Set(user.ID, entries)
	}
	return entries
}

// Pending returns the number of buffered entries for the user.
func (b *Buffer) Pending(userID string) int {
	buf, _ := b.buffers.Get(userID)
	return len(buf)
}

// shouldFlush applies the flush policy to the user's buffer. An empty
// buffer counts as flush-eligible, matching the upstream workflow contract.
func (b *Buffer) shouldFlush(userID string) bool {
	buf, _ := b.buffers.Get(userID)
	if len(buf) == 0 {
		return true
	}
	if len(buf) >= b.flushSize {
		return true
	}
	return b.now().Sub(buf[0].Timestamp) > b.flushAge
}

// flush ships the user's whole buffer as one log_chat batch. The buffer is
// cleared only on confirmed success; failure keeps every entry for the next
// Record call to retry.
func (b *Buffer) flush(ctx context.Context, user identity.User) {
	batch, _ := b.buffers.Get(user.ID)
	if len(batch) == 0 {
		return
	}

	logs := make([]map[string]any, len(batch))
	for i, e := range batch {
		logs[i] = map[string]any{
			"message":   e.Message,
			"response":  e.Response,
			"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
		}
	}

	_, err := b.gateway.Send(ctx, "log_chat", map[string]any{
		"discord_id":   user.ID,
		"discord_name": user.Name,
		"chat_logs":    logs,
	}, webhook.TargetAutomation)
	if err != nil {
		b.logger.Error("chat log flush failed, retaining buffer",
			"user_id", user.ID, "entries", len(batch), "error", err)
		return
	}

	b.buffers.Set(user.ID, nil)
	b.logger.Info("chat log batch flushed", "user_id", user.ID, "entries", len(batch))
}

// timestampLayouts covers RFC3339 and the naive ISO form older records use.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
