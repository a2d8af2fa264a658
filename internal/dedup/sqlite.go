// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the durable Store. Marks survive restarts and can be shared by
// several pipeline processes pointing at the same file (R4.1).
type SQLite struct {
	db        *sql.DB
	retention time.Duration

	// now is replaced by retention tests.
	now func() time.Time
}

// NewSQLite opens or creates the dedup database at path and ensures the
// schema exists. retention <= 0 keeps entries forever.
func NewSQLite(path string, retention time.Duration) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite dedup store requires a path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating dedup directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening dedup database: %w", err)
	}

	s := &SQLite{db: db, retention: retention, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating dedup schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS seen (
		key        TEXT PRIMARY KEY,
		first_seen INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

func (s *SQLite) CheckAndMark(ctx context.Context, canonicalURL, contentHash string) (bool, error) {
	uk, hk := urlKey(canonicalURL), hashKey(contentHash)
	now := s.now().Unix()

	// One immediate transaction covers check and mark, so two workers
	// racing on the same document cannot both pass (R1.4).
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning dedup transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT first_seen FROM seen WHERE key IN (?, ?)`, uk, hk)
	if err != nil {
		return false, fmt.Errorf("querying dedup keys: %w", err)
	}
	seen := false
	for rows.Next() {
		var first int64
		if err := rows.Scan(&first); err != nil {
			rows.Close()
			return false, fmt.Errorf("scanning dedup row: %w", err)
		}
		if s.retention <= 0 || now-first <= int64(s.retention.Seconds()) {
			seen = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, fmt.Errorf("reading dedup rows: %w", err)
	}
	rows.Close()

	if seen {
		return true, nil
	}

	// REPLACE refreshes first_seen for expired entries (R4.2).
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO seen (key, first_seen) VALUES (?, ?), (?, ?)`,
		uk, now, hk, now); err != nil {
		return false, fmt.Errorf("marking dedup keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing dedup transaction: %w", err)
	}
	return false, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
