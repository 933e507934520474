package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// PostgresStore keeps the snapshot as a single-row jsonb document. Meant
// for deployments where the bot host has no durable disk.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bot_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	document   JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// NewPostgresStore creates and validates a connection pool, then ensures
// the state table exists.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	// The bot is single-threaded around the snapshot; two connections
	// cover a save overlapping a health check.
	poolCfg.MaxConns = 2
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}

	logger.Debug("postgres state store ready")
	return &PostgresStore{pool: pool}, nil
}

// Load reads the single document row. An empty table yields a fresh
// snapshot.
func (p *PostgresStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, "SELECT document FROM bot_state WHERE id = 1").Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return snapshot.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state row: %w", err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, fmt.Errorf("decode state document: %w", err)
	}
	snap.Backfill()
	return &snap, nil
}

// Save upserts the document row.
func (p *PostgresStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO bot_state (id, document, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		doc)
	if err != nil {
		return fmt.Errorf("write state row: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
