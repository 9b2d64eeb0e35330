// sqlite.go implements the SQLite transcript backend, the zero-configuration
// default for local deployments.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// schema is the DDL executed on every startup (idempotent via IF NOT EXISTS).
const schema = `
-- Chat exchanges (append-only, one row per message/response pair).
CREATE TABLE IF NOT EXISTS chat_logs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL,
    message    TEXT NOT NULL,
    response   TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_logs_uid ON chat_logs(user_id);

-- Trade summaries and other AI-typed transcript messages.
CREATE TABLE IF NOT EXISTS messages (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    content    TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT 'ai',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_sid ON messages(session_id);
`

// SQLiteStore is the SQLite-backed transcript store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the transcript database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = "tradescribe.db"
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transcript: creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("transcript: opening sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("transcript: applying schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger.With("component", "transcript")}, nil
}

// AppendChatLog inserts one exchange row for the user.
func (s *SQLiteStore) AppendChatLog(ctx context.Context, userID string, entry ChatLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_logs (user_id, message, response, created_at) VALUES (?, ?, ?, ?)`,
		userID, entry.Message, entry.Response, entry.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("transcript: appending chat log for %s: %w", userID, err)
	}
	return nil
}

// AppendTradeSummary inserts the summary as an AI-typed message row.
func (s *SQLiteStore) AppendTradeSummary(ctx context.Context, userID, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, content, type, created_at) VALUES (?, ?, 'ai', ?)`,
		userID, summary, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("transcript: appending trade summary for %s: %w", userID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
