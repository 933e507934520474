package config

import (
	"testing"
	"time"
)

// scrubEnv blanks every variable Load reads so host values cannot leak
// into assertions. t.Setenv restores them afterwards.
func scrubEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_API_URL", "TELEGRAM_RATE_PER_MINUTE",
		"GROUP_CONFIG", "STATE_BACKEND", "STATE_PATH", "DATABASE_URL",
		"ARCHIVE_DIR", "CHANGELOG_THREAD_ID", "SERVE_INTERVAL_MINUTES",
		"API_HOST", "API_PORT", "PORT",
		"API_RATE_LIMIT_ENABLED", "API_RATE_LIMIT_REQUESTS", "API_RATE_LIMIT_WINDOW_SECONDS",
		"CORS_ALLOW_ORIGINS", "ENVIRONMENT", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	scrubEnv(t)
	if _, err := Load(); err == nil {
		t.Error("Load accepted a missing bot token")
	}
}

func TestLoadDefaults(t *testing.T) {
	scrubEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "12345:token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateBackend != "file" || cfg.StatePath != "bot_state.json" {
		t.Errorf("state = %q %q", cfg.StateBackend, cfg.StatePath)
	}
	if cfg.GroupConfigPath != "config.json" {
		t.Errorf("GroupConfigPath = %q", cfg.GroupConfigPath)
	}
	if cfg.TelegramRateLimit != 20 {
		t.Errorf("TelegramRateLimit = %d", cfg.TelegramRateLimit)
	}
	if cfg.ServeInterval != 30*time.Minute {
		t.Errorf("ServeInterval = %v", cfg.ServeInterval)
	}
	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d", cfg.APIPort)
	}
	if cfg.RateLimitEnabled {
		t.Error("rate limiting enabled by default")
	}
	if cfg.IsProduction() {
		t.Errorf("Environment = %q treated as production", cfg.Environment)
	}
}

func TestLoadBackendRules(t *testing.T) {
	scrubEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "12345:token")

	t.Setenv("STATE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Error("unknown backend accepted")
	}

	t.Setenv("STATE_BACKEND", "sqlite")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if cfg.StatePath != "bot_state.db" {
		t.Errorf("sqlite default path = %q", cfg.StatePath)
	}

	t.Setenv("STATE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Error("postgres accepted without DATABASE_URL")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/pbp")
	if _, err := Load(); err != nil {
		t.Errorf("postgres with url: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	scrubEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "12345:token")
	t.Setenv("SERVE_INTERVAL_MINUTES", "5")
	t.Setenv("CHANGELOG_THREAD_ID", "71537")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://pbp.example.org, https://stats.example.org")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServeInterval != 5*time.Minute {
		t.Errorf("ServeInterval = %v", cfg.ServeInterval)
	}
	if cfg.ChangelogThreadID != 71537 {
		t.Errorf("ChangelogThreadID = %d", cfg.ChangelogThreadID)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://stats.example.org" {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
	if !cfg.IsProduction() {
		t.Error("production environment not recognised")
	}
}
