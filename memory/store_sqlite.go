package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single-file SQLite database, for agents
// whose long-term memories must survive restarts.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) the database at path and
// prepares the item schema. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS store_items (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store_items table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put creates or replaces an item (implements Store).
func (s *SQLiteStore) Put(ctx context.Context, ns Namespace, key string, value json.RawMessage) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `
		INSERT INTO store_items (namespace, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, ns.String(), key, string(value), now, now); err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// Get returns an item or ErrNotFound (implements Store).
func (s *SQLiteStore) Get(ctx context.Context, ns Namespace, key string) (Item, error) {
	if err := s.ensureOpen(); err != nil {
		return Item{}, err
	}

	query := `
		SELECT value, created_at, updated_at
		FROM store_items
		WHERE namespace = ? AND key = ?
	`
	var (
		value      string
		createdStr string
		updatedStr string
	)
	err := s.db.QueryRowContext(ctx, query, ns.String(), key).Scan(&value, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	item := Item{
		Namespace: append(Namespace(nil), ns...),
		Key:       key,
		Value:     json.RawMessage(value),
	}
	if item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
		return Item{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedStr); err != nil {
		return Item{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return item, nil
}

// Delete removes an item (implements Store).
func (s *SQLiteStore) Delete(ctx context.Context, ns Namespace, key string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM store_items WHERE namespace = ? AND key = ?", ns.String(), key); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// List returns namespace items ordered by key (implements Store).
func (s *SQLiteStore) List(ctx context.Context, ns Namespace) ([]Item, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT key, value, created_at, updated_at
		FROM store_items
		WHERE namespace = ?
		ORDER BY key ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ns.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Item
	for rows.Next() {
		var (
			item       Item
			value      string
			createdStr string
			updatedStr string
		)
		if err := rows.Scan(&item.Key, &value, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Namespace = append(Namespace(nil), ns...)
		item.Value = json.RawMessage(value)
		if item.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if item.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedStr); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return out, nil
}

// Search returns matching items, ordered by key (implements Store).
func (s *SQLiteStore) Search(ctx context.Context, ns Namespace, query string, limit int) ([]SearchHit, error) {
	items, err := s.List(ctx, ns)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, item := range items {
		score := matchScore(item, query)
		if score == 0 {
			continue
		}
		hits = append(hits, SearchHit{Item: item, Score: score})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// Close closes the database connection. Double-close is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}
