// loader.go handles loading configuration from YAML files with credential
// management via environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or $VAR_NAME in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Z_][A-Z0-9_]*)`)

// LoadFromFile reads and parses a YAML configuration file.
// Automatically loads .env files and expands environment variables.
func LoadFromFile(path string) (*Config, error) {
	// Load .env files (silently ignore if not found).
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in YAML before parsing.
	expanded := expandEnvVars(string(data))

	cfg, err := Parse([]byte(expanded))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg)

	return cfg, nil
}

// LoadFromEnv builds a Config from defaults and environment variables
// alone, for deployments that ship no config file (the original hosting
// model: everything in .env).
func LoadFromEnv() *Config {
	loadEnvFiles()
	cfg := DefaultConfig()
	resolveSecrets(cfg)
	// MONGO_URI in the environment selects the mongo backend.
	if cfg.Transcript.URI != "" {
		cfg.Transcript.Type = "mongo"
	}
	return cfg
}

// Parse parses YAML bytes into a Config.
// Starts with defaults and overlays values from the YAML.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for config files in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"tradescribe.yaml",
		"tradescribe.yml",
		"configs/config.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks that the settings required to run are present.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("config: discord.token is required (set DISCORD_BOT_TOKEN)")
	}
	if c.Flowise.URL == "" {
		return fmt.Errorf("config: flowise.url is required (set FLOWISE_API_URL)")
	}
	if c.Webhooks.AutomationURL == "" {
		return fmt.Errorf("config: webhooks.automation_url is required (set MAKE_WEBHOOK_URL)")
	}
	if c.Webhooks.TradeSummaryURL == "" {
		return fmt.Errorf("config: webhooks.trade_summary_url is required (set TRADE_SUMMARY_WEBHOOK_URL)")
	}
	return nil
}

// ---------- Internal ----------

// loadEnvFiles loads .env files from standard locations.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, f := range envFiles {
		// godotenv.Load does NOT overwrite existing env vars.
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} and $VAR references in a string
// with their environment variable values.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if val, ok := os.LookupEnv(varName); ok {
			return val
		}

		// Return original if env var not set (allows placeholder to remain).
		return match
	})
}

// resolveSecrets fills in config secrets from environment variables
// when the config value is empty or still a placeholder.
func resolveSecrets(cfg *Config) {
	set := func(dst *string, envs ...string) {
		if *dst != "" && !strings.HasPrefix(*dst, "$") {
			return
		}
		for _, e := range envs {
			if v := os.Getenv(e); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Discord.Token, "DISCORD_BOT_TOKEN")
	set(&cfg.Flowise.URL, "FLOWISE_API_URL")
	set(&cfg.Flowise.APIKey, "FLOWISE_API_KEY")
	set(&cfg.Webhooks.AutomationURL, "MAKE_WEBHOOK_URL")
	set(&cfg.Webhooks.TradeSummaryURL, "TRADE_SUMMARY_WEBHOOK_URL")
	set(&cfg.Transcript.URI, "MONGO_URI")
}
