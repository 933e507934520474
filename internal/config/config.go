// Package config provides process configuration from environment variables
// and the static group configuration file describing campaigns, topics, and
// tunables. Shared by every pbpbot subcommand.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Telegram
	BotToken          string
	TelegramAPIURL    string // "" = production Bot API
	TelegramRateLimit int    // outbound requests per minute

	// Group configuration file (campaigns, topics, settings)
	GroupConfigPath string

	// Snapshot store
	StateBackend string // file, sqlite, postgres
	StatePath    string // file path (file/sqlite backends)
	DatabaseURL  string // postgres backend

	// Weekly archive output
	ArchiveDir string

	// Changelog posts
	ChangelogThreadID int64

	// Serve mode
	ServeInterval time.Duration
	APIHost       string
	APIPort       int

	// Status server rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// CORS (status server)
	CORSAllowOrigins []string

	Environment string // development, staging, production
	Debug       bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	token := envOr("TELEGRAM_BOT_TOKEN", "")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN must be set")
	}

	backend := strings.ToLower(envOr("STATE_BACKEND", "file"))
	switch backend {
	case "file", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("STATE_BACKEND must be file, sqlite, or postgres (got %q)", backend)
	}

	dbURL := envOr("DATABASE_URL", "")
	if backend == "postgres" && dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set when STATE_BACKEND=postgres")
	}

	return &Config{
		BotToken:          token,
		TelegramAPIURL:    envOr("TELEGRAM_API_URL", ""),
		TelegramRateLimit: envInt("TELEGRAM_RATE_PER_MINUTE", 20),

		GroupConfigPath: envOr("GROUP_CONFIG", "config.json"),

		StateBackend: backend,
		StatePath:    envOr("STATE_PATH", defaultStatePath(backend)),
		DatabaseURL:  dbURL,

		ArchiveDir: envOr("ARCHIVE_DIR", "archive"),

		ChangelogThreadID: int64(envInt("CHANGELOG_THREAD_ID", 0)),

		ServeInterval: time.Duration(envInt("SERVE_INTERVAL_MINUTES", 30)) * time.Minute,
		APIHost:       envOr("API_HOST", "0.0.0.0"),
		APIPort:       envInt("API_PORT", envInt("PORT", 8080)),

		RateLimitEnabled:  envBool("API_RATE_LIMIT_ENABLED", false),
		RateLimitRequests: envInt("API_RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Duration(envInt("API_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultStatePath(backend string) string {
	if backend == "sqlite" {
		return "bot_state.db"
	}
	return "bot_state.json"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
