// discord.go wires the orchestrator to the Discord gateway using discordgo:
// DM handling, mention redirects, the trade-summary button and its
// interaction follow-ups.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/identity"
)

// summaryButtonID is the custom_id of the trade-summary button.
const summaryButtonID = "trade_summary_button"

// Config holds Discord connection configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string
}

// Bot is the Discord-facing side of tradescribe.
type Bot struct {
	cfg     Config
	orch    *Orchestrator
	logger  *slog.Logger
	session *discordgo.Session

	// connected tracks gateway connection state.
	connected atomic.Bool
}

// New creates a Bot around the orchestrator.
func New(cfg Config, orch *Orchestrator, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		cfg:    cfg,
		orch:   orch,
		logger: logger.With("component", "discord"),
	}
}

// Connect opens the Discord gateway WebSocket connection.
func (b *Bot) Connect(ctx context.Context) error {
	if b.cfg.Token == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	session, err := discordgo.New("Bot " + b.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}

	b.session = session
	b.connected.Store(true)

	user := session.State.User
	b.logger.Info("connected", "bot", user.Username, "id", user.ID)
	return nil
}

// Disconnect closes the Discord gateway connection.
func (b *Bot) Disconnect() error {
	if b.session != nil {
		b.session.Close()
	}
	b.connected.Store(false)
	b.logger.Info("disconnected")
	return nil
}

// IsConnected reports whether the gateway connection is open.
func (b *Bot) IsConnected() bool { return b.connected.Load() }

// ---------- Messenger Interface ----------

// SendText sends a plain text message to the channel.
func (b *Bot) SendText(ctx context.Context, channelID, content string) error {
	_, err := b.session.ChannelMessageSend(channelID, content)
	return err
}

// SendTextWithSummaryButton sends a text message carrying the
// "Get Trade Summary" button.
func (b *Bot) SendTextWithSummaryButton(ctx context.Context, channelID, content string) error {
	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Get Trade Summary",
						Style:    discordgo.PrimaryButton,
						CustomID: summaryButtonID,
					},
				},
			},
		},
	})
	return err
}

// ---------- Event Handlers ----------

// onMessageCreate handles incoming Discord messages. DMs run the full
// conversation pipeline; guild messages that mention the bot get redirected
// to a DM and nothing else happens.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore the bot's own messages and other bots.
	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	if b.isMentioned(s, m) {
		b.redirectToDM(m.Author)
		return
	}

	// Guild chatter without a mention is none of our business.
	if m.GuildID != "" {
		return
	}

	user := identity.User{
		ID:            m.Author.ID,
		Name:          m.Author.Username,
		Discriminator: m.Author.Discriminator,
	}

	// Each message is handled as its own task; a slow backend call stalls
	// only this user's reply.
	go func() {
		defer b.recoverHandler(m.ChannelID)

		ctx := context.Background()
		_ = s.ChannelTyping(m.ChannelID)
		b.orch.HandleDirectMessage(ctx, b, user, m.ChannelID, m.Content)
	}()
}

// onInteractionCreate handles the trade-summary button click: acknowledge
// with a deferred "thinking" response, then deliver the summary chunks (or
// the apology) as follow-ups.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	if i.MessageComponentData().CustomID != summaryButtonID {
		return
	}

	author := i.User
	if author == nil && i.Member != nil {
		author = i.Member.User
	}
	if author == nil {
		return
	}
	user := identity.User{ID: author.ID, Name: author.Username, Discriminator: author.Discriminator}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.logger.Error("interaction defer failed", "user_id", user.ID, "error", err)
		return
	}

	go func() {
		defer b.recoverHandler("")

		chunks := b.orch.HandleTradeSummaryRequest(context.Background(), user)
		for _, chunk := range chunks {
			_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
				Content: chunk,
			})
			if err != nil {
				b.logger.Error("summary follow-up failed", "user_id", user.ID, "error", err)
				return
			}
		}
	}()
}

// ---------- Helpers ----------

// isMentioned reports whether the bot is mentioned in a guild message.
func (b *Bot) isMentioned(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		return false
	}
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

// redirectToDM opens (or reuses) the DM channel with the user and sends the
// redirect notice. No caching, no logging, no AI call.
func (b *Bot) redirectToDM(author *discordgo.User) {
	dm, err := b.session.UserChannelCreate(author.ID)
	if err != nil {
		b.logger.Error("opening DM channel failed", "user_id", author.ID, "error", err)
		return
	}
	if _, err := b.session.ChannelMessageSend(dm.ID, msgMentionRedirect); err != nil {
		b.logger.Error("mention redirect failed", "user_id", author.ID, "error", err)
	}
}

// recoverHandler converts a handler panic into the generic user-facing
// error so one bad message never takes the process down.
func (b *Bot) recoverHandler(channelID string) {
	r := recover()
	if r == nil {
		return
	}
	b.logger.Error("handler panicked", "panic", r)
	if channelID != "" && b.session != nil {
		_, _ = b.session.ChannelMessageSend(channelID, msgUnexpected)
	}
}

var _ Messenger = (*Bot)(nil)
