package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradescribe/tradescribe/pkg/tradescribe/bot"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/config"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/flowise"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/history"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/keepalive"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/session"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/subscriber"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/sweeper"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/trades"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/transcript"
	"github.com/tradescribe/tradescribe/pkg/tradescribe/webhook"
)

// newServeCmd creates the `tradescribe serve` command that starts the bot.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot and connect to Discord",
		Long: `Start tradescribe as a long-running service: connect to the Discord
gateway, relay direct messages to the Flowise backend, and serve
trade-summary button interactions.

Examples:
  tradescribe serve
  tradescribe serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── Configure logger ──
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Open the transcript store ──
	store, err := transcript.Open(ctx, transcript.Config{
		Type:       cfg.Transcript.Type,
		URI:        cfg.Transcript.URI,
		Database:   cfg.Transcript.Database,
		Collection: cfg.Transcript.Collection,
		Path:       cfg.Transcript.Path,
	}, logger)
	if err != nil {
		return err
	}

	// ── Wire the pipeline ──
	gateway := webhook.New(webhook.Config{
		AutomationURL:   cfg.Webhooks.AutomationURL,
		TradeSummaryURL: cfg.Webhooks.TradeSummaryURL,
	}, logger)

	backend := flowise.New(flowise.Config{
		URL:    cfg.Flowise.URL,
		APIKey: cfg.Flowise.APIKey,
	}, logger)

	subscribers := subscriber.New(gateway, cfg.Sessions.SubscriberTTL, logger)
	sessions := session.New(cfg.Sessions.IdleTimeout, logger)
	hist := history.New(gateway, store, history.Options{
		FlushSize: cfg.Sessions.FlushSize,
		FlushAge:  cfg.Sessions.FlushAge,
	}, logger)
	tradeCache := trades.New(gateway, store, logger)

	orch := bot.NewOrchestrator(subscribers, sessions, hist, tradeCache, backend, logger)
	discordBot := bot.New(bot.Config{Token: cfg.Discord.Token}, orch, logger)

	// ── Daily cache sweep ──
	sweep := sweeper.New(cfg.Sessions.SweepInterval, []sweeper.Target{
		sweeper.Func{TargetName: "subscriber_cache", Fn: subscribers.Clear},
		sweeper.Func{TargetName: "first_message_flags", Fn: sessions.ClearFirstFlags},
	}, logger)
	if err := sweep.Start(); err != nil {
		return err
	}

	// ── Liveness endpoint ──
	live := keepalive.New(cfg.KeepAlive.Address, logger)
	live.Start()

	// ── Connect to Discord ──
	if err := discordBot.Connect(ctx); err != nil {
		return err
	}

	logger.Info("tradescribe running. Press Ctrl+C to stop.")

	// ── Wait for shutdown ──
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = discordBot.Disconnect()
	sweep.Stop()
	_ = live.Shutdown(shutdownCtx)
	_ = store.Close(shutdownCtx)

	logger.Info("stopped")
	return nil
}

// resolveConfig loads the config from --config or the standard locations.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		// No file: run from environment variables alone.
		return config.LoadFromEnv(), nil
	}
	return config.LoadFromFile(path)
}
