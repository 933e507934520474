// Package store persists the activity snapshot between runs. Three
// backends share one interface: a JSON file (default), a single-row
// SQLite document table, and a single-row Postgres document table. The
// engine never looks past the interface; backend choice is deployment
// configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/config"
	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// Store loads and saves the snapshot document. Load on an empty backend
// returns a fresh snapshot, never an error.
type Store interface {
	Load(ctx context.Context) (*snapshot.Snapshot, error)
	Save(ctx context.Context, snap *snapshot.Snapshot) error
	Close() error
}

// Open selects a backend from configuration.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.StateBackend {
	case "file":
		return NewFileStore(cfg.StatePath), nil
	case "sqlite":
		return NewSQLiteStore(cfg.StatePath)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}
