// Package transcript provides durable persistence of conversation
// transcripts: one document per user holding the appended chat logs and
// trade-summary messages. Writes are append-only upserts keyed by the
// Discord user ID; a failed write never blocks the in-memory pipeline.
//
// Backends are selected by config ("mongo", "sqlite", "none") behind the
// Store interface so the rest of the bot never touches a driver directly.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ChatLogEntry is one message/response exchange.
type ChatLogEntry struct {
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists transcript records.
type Store interface {
	// AppendChatLog appends one exchange to the user's chat log
	// (document created on first write).
	AppendChatLog(ctx context.Context, userID string, entry ChatLogEntry) error

	// AppendTradeSummary appends a trade summary as an AI-typed message
	// to the user's transcript.
	AppendTradeSummary(ctx context.Context, userID, summary string) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	// Type is the backend type ("mongo", "sqlite", "none").
	Type string

	// URI is the MongoDB connection string.
	URI string

	// Database is the MongoDB database name.
	Database string

	// Collection is the MongoDB collection name.
	Collection string

	// Path is the SQLite database file path.
	Path string
}

// Open creates the Store configured by cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "mongo":
		return OpenMongo(ctx, cfg, logger)
	case "sqlite", "":
		return OpenSQLite(cfg.Path, logger)
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("transcript: unknown store type %q", cfg.Type)
	}
}

// NopStore discards all writes. Used when no persistence is configured.
type NopStore struct{}

func (NopStore) AppendChatLog(ctx context.Context, userID string, entry ChatLogEntry) error {
	return nil
}

func (NopStore) AppendTradeSummary(ctx context.Context, userID, summary string) error {
	return nil
}

func (NopStore) Close(ctx context.Context) error { return nil }

var _ Store = NopStore{}
