// Package session tracks conversational session boundaries. A session is a
// user's logically continuous conversation; a gap of inactivity longer than
// the idle timeout starts a new one. The first message of a new session is
// flagged so the orchestrator can attach the trade-summary button to it.
package session

import (
	"log/slog"
	"time"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/state"
)

// DefaultIdleTimeout is the inactivity gap that bounds a session.
const DefaultIdleTimeout = 15 * time.Minute

// Tracker decides session boundaries from per-user interaction timestamps.
type Tracker struct {
	lastInteraction *state.Store[time.Time]
	firstMessage    *state.Store[bool]
	idleTimeout     time.Duration
	logger          *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Tracker with the given idle timeout.
func New(idleTimeout time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Tracker{
		lastInteraction: state.NewStore[time.Time](),
		firstMessage:    state.NewStore[bool](),
		idleTimeout:     idleTimeout,
		logger:          logger.With("component", "session"),
		now:             time.Now,
	}
}

// IsNewSession reports whether the user's next message starts a new session:
// true when the user has never interacted, or when the previous interaction
// is older than the idle timeout. Callers must evaluate this BEFORE
// RecordInteraction stamps the current message.
func (t *Tracker) IsNewSession(userID string) bool {
	last, ok := t.lastInteraction.Get(userID)
	if !ok {
		return true
	}
	return t.now().Sub(last) > t.idleTimeout
}

// RecordInteraction stamps the user's latest interaction time.
func (t *Tracker) RecordInteraction(userID string) {
	t.lastInteraction.Set(userID, t.now())
}

// MarkFirstMessage flags the user's next delivered reply as the first of a
// new session.
func (t *Tracker) MarkFirstMessage(userID string) {
	t.firstMessage.Set(userID, true)
}

// ConsumeFirstMessage reports and resets the first-message flag. The flag is
// read-once: a second call returns false until a new session marks it again.
func (t *Tracker) ConsumeFirstMessage(userID string) bool {
	first, ok := t.firstMessage.Get(userID)
	if !ok || !first {
		return false
	}
	t.firstMessage.Set(userID, false)
	return true
}

// ClearFirstFlags drops all first-message flags. Called by the daily sweep;
// interaction timestamps survive so session boundaries stay correct.
func (t *Tracker) ClearFirstFlags() {
	t.firstMessage.Clear()
}
