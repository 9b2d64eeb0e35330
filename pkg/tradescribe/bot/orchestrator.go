// Package bot ties the caches, the AI backend and the Discord gateway into
// the per-message conversation pipeline: authorize, evaluate the session
// boundary, fetch the AI reply, deliver it, log the exchange.
//
// All external-call failures are absorbed below this package and arrive as
// booleans or empty results; the orchestrator only branches, it never sees
// an error type cross its control flow.
package bot

import (
	"context"
	"log/slog"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/flowise"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/history"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/identity"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/session"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/subscriber"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/trades"
)

// User-facing messages.
const (
	msgAccessDenied    = "I'm sorry but you don't have access to this chatbot. To subscribe, please contact our Admin."
	msgBackendError    = "Sorry, there was an error processing your message. Please try again later."
	msgUnexpected      = "An unexpected error occurred. Please try again later."
	msgMentionRedirect = "You mentioned me! Let's continue this conversation here."
	msgNoReply         = "I couldn't generate a response."
	msgSummaryFailed   = "Sorry, I couldn't retrieve your trade summary at this time. Please try again later."
)

// Messenger delivers outbound messages to a Discord channel.
type Messenger interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, channelID, content string) error

	// SendTextWithSummaryButton sends a text message carrying the
	// "Get Trade Summary" action button.
	SendTextWithSummaryButton(ctx context.Context, channelID, content string) error
}

// Backend is the conversational-AI surface the orchestrator needs.
type Backend interface {
	Ask(ctx context.Context, question, sessionID string) (*flowise.Reply, error)
}

// Orchestrator runs the per-message conversation pipeline.
type Orchestrator struct {
	subscribers *subscriber.Cache
	sessions    *session.Tracker
	history     *history.Buffer
	trades      *trades.Cache
	backend     Backend
	logger      *slog.Logger
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(
	subscribers *subscriber.Cache,
	sessions *session.Tracker,
	hist *history.Buffer,
	tradeCache *trades.Cache,
	backend Backend,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		subscribers: subscribers,
		sessions:    sessions,
		history:     hist,
		trades:      tradeCache,
		backend:     backend,
		logger:      logger.With("component", "orchestrator"),
	}
}

// HandleDirectMessage runs the full pipeline for one inbound DM. Failures
// surface to the user as fixed messages; nothing propagates to the caller.
func (o *Orchestrator) HandleDirectMessage(ctx context.Context, m Messenger, user identity.User, channelID, content string) {
	// AuthCheck: non-subscribers get the denial and nothing else —
	// no session update, no backend call, no logging.
	if !o.subscribers.IsAuthorized(ctx, user) {
		o.sendText(ctx, m, channelID, msgAccessDenied)
		return
	}

	// SessionEval: the idle check must read the previous interaction
	// timestamp, so it runs before this message is stamped.
	isNewSession := o.sessions.IsNewSession(user.ID)
	o.sessions.RecordInteraction(user.ID)
	if isNewSession {
		o.sessions.MarkFirstMessage(user.ID)
	}

	// Warm the local history cache. The backend carries its own session
	// memory keyed by session ID; history is not forwarded to it.
	o.history.Fetch(ctx, user)

	// AwaitBackend: every message goes to the backend live, never cached.
	reply, err := o.backend.Ask(ctx, content, user.SessionID())
	if err != nil {
		o.logger.Error("backend call failed", "user_id", user.ID, "error", err)
		o.sendText(ctx, m, channelID, msgBackendError)
		return
	}

	// Deliver.
	text := reply.Content()
	if text == "" {
		text = msgNoReply
	}
	text = truncateReply(text)

	if o.sessions.ConsumeFirstMessage(user.ID) {
		if err := m.SendTextWithSummaryButton(ctx, channelID, text); err != nil {
			o.logger.Error("delivery failed", "user_id", user.ID, "error", err)
			return
		}
	} else {
		if err := m.SendText(ctx, channelID, text); err != nil {
			o.logger.Error("delivery failed", "user_id", user.ID, "error", err)
			return
		}
	}

	// Log only what was actually delivered.
	o.history.Record(ctx, user, content, text)
}

// HandleTradeSummaryRequest serves a trade-summary button click. Returns
// the follow-up messages to send in order: line-packed summary chunks on
// success (after persisting the summary to the transcript), or a single
// apology on failure.
func (o *Orchestrator) HandleTradeSummaryRequest(ctx context.Context, user identity.User) []string {
	summary, ok := o.trades.Get(ctx, user, user.SessionID())
	if !ok {
		return []string{msgSummaryFailed}
	}

	o.trades.Persist(ctx, user, summary)
	return splitSummary(summary)
}

// sendText delivers a message, logging a failed send.
func (o *Orchestrator) sendText(ctx context.Context, m Messenger, channelID, content string) {
	if err := m.SendText(ctx, channelID, content); err != nil {
		o.logger.Error("send failed", "channel_id", channelID, "error", err)
	}
}
