// Package procstore persists the processed-id set across runs so the monitor
// can deduplicate at the message level after a restart. Writes happen after
// every successful commit, not at shutdown, bounding replay after a crash to
// one group.
package procstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const processedDDL = `
CREATE TABLE IF NOT EXISTS processed_ids (
	id          TEXT PRIMARY KEY,
	recorded_at TEXT NOT NULL
);`

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates the SQLite store at path, creating parent directories and the
// schema as needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(processedDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

// Load returns every persisted id.
func (s *Store) Load(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM processed_ids`)
	if err != nil {
		return nil, fmt.Errorf("load processed ids: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log.Warn("procstore.rows_close_error", "error", cerr)
		}
	}()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Add records an id; re-adding an existing id is a no-op.
func (s *Store) Add(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_ids (id, recorded_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("add processed id: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
