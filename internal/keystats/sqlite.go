package keystats

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists counts to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) a SQLite store at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS key_counts (
			key TEXT PRIMARY KEY,
			count INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add implements Store.
func (s *SQLiteStore) Add(ctx context.Context, key string, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO key_counts (key, count) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET count = count + excluded.count
	`, key, n)
	if err != nil {
		return fmt.Errorf("add key count: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var row *sql.Row
	if key == "" {
		row = s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(count), 0) FROM key_counts`)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(count), 0) FROM key_counts WHERE key = ?`, key)
	}

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count keys: %w", err)
	}
	return count, nil
}

// Top implements Store.
func (s *SQLiteStore) Top(ctx context.Context, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	limit := n
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, count FROM key_counts
		ORDER BY count DESC, key ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top keys: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Count); err != nil {
			return nil, fmt.Errorf("scan key count: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key counts: %w", err)
	}
	return entries, nil
}

// Reset implements Store.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM key_counts`); err != nil {
		return fmt.Errorf("reset key counts: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
