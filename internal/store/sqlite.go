package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LewisIsWorking/telegram-pbp-reminder/internal/snapshot"
)

// SQLiteStore keeps the snapshot as a single-row document table. The
// whole document is replaced on every save; row history is not kept.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bot_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	document   TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite state: %w", err)
	}
	// One writer, one process. Contention comes only from manual state
	// inspection, which a short busy timeout covers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the single document row. An empty table yields a fresh
// snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM bot_state WHERE id = 1").Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state row: %w", err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, fmt.Errorf("decode state document: %w", err)
	}
	snap.Backfill()
	return &snap, nil
}

// Save upserts the document row.
func (s *SQLiteStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bot_state (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(doc), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write state row: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
