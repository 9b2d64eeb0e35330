// Package config defines all configuration structures for the tradescribe bot.
package config

import "time"

// Config holds all bot configuration.
type Config struct {
	// Discord configures the Discord gateway connection.
	Discord DiscordConfig `yaml:"discord"`

	// Flowise configures the conversational-AI backend.
	Flowise FlowiseConfig `yaml:"flowise"`

	// Webhooks configures the automation webhook endpoints.
	Webhooks WebhookConfig `yaml:"webhooks"`

	// Transcript configures the durable transcript store.
	Transcript TranscriptConfig `yaml:"transcript"`

	// Sessions configures session and cache lifetimes.
	Sessions SessionConfig `yaml:"sessions"`

	// KeepAlive configures the liveness HTTP endpoint.
	KeepAlive KeepAliveConfig `yaml:"keepalive"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	// Token is the Discord bot token.
	Token string `yaml:"token"`
}

// FlowiseConfig holds the AI backend settings.
type FlowiseConfig struct {
	// URL is the Flowise prediction endpoint.
	URL string `yaml:"url"`

	// APIKey is the bearer token sent with every prediction request.
	APIKey string `yaml:"api_key"`
}

// WebhookConfig holds the automation webhook endpoints.
type WebhookConfig struct {
	// AutomationURL receives check_subscriber, log_chat and
	// fetch_chat_history actions.
	AutomationURL string `yaml:"automation_url"`

	// TradeSummaryURL receives get_trade_summary actions.
	TradeSummaryURL string `yaml:"trade_summary_url"`
}

// TranscriptConfig selects and configures the transcript store backend.
type TranscriptConfig struct {
	// Type is the storage type ("mongo", "sqlite", "none").
	Type string `yaml:"type"`

	// URI is the MongoDB connection string (for mongo).
	URI string `yaml:"uri"`

	// Database is the MongoDB database name (for mongo).
	Database string `yaml:"database"`

	// Collection is the MongoDB collection name (for mongo).
	Collection string `yaml:"collection"`

	// Path is the database file path (for sqlite).
	Path string `yaml:"path"`
}

// SessionConfig holds session and cache lifetimes.
type SessionConfig struct {
	// IdleTimeout is the inactivity gap that starts a new session.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// SubscriberTTL is how long a subscriber check stays cached.
	SubscriberTTL time.Duration `yaml:"subscriber_ttl"`

	// SweepInterval is how often the global cache sweep runs.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// FlushSize is the chat-log buffer size that forces a flush.
	FlushSize int `yaml:"flush_size"`

	// FlushAge is the buffered-entry age that forces a flush.
	FlushAge time.Duration `yaml:"flush_age"`
}

// KeepAliveConfig holds the liveness endpoint settings.
type KeepAliveConfig struct {
	// Address is the listen address for the liveness server.
	Address string `yaml:"address"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Transcript: TranscriptConfig{
			Type:       "sqlite",
			Path:       "tradescribe.db",
			Database:   "flowisedb1",
			Collection: "discordbot",
		},
		Sessions: SessionConfig{
			IdleTimeout:   15 * time.Minute,
			SubscriberTTL: 24 * time.Hour,
			SweepInterval: 24 * time.Hour,
			FlushSize:     5,
			FlushAge:      5 * time.Minute,
		},
		KeepAlive: KeepAliveConfig{
			Address: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
