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

// SQLiteSaver is a SQLite-backed Checkpointer.
//
// Checkpoints live in a single-file database, which makes this the right
// saver for local agents that need conversation history to survive restarts
// without running a database server. Use ":memory:" for an ephemeral
// database in tests.
//
// State is serialized through the configured Serializer (JSON by default).
type SQLiteSaver[S any] struct {
	db         *sql.DB
	serializer Serializer[S]
	mu         sync.RWMutex
	closed     bool
}

// NewSQLiteSaver opens (creating if needed) the database at path and
// prepares the checkpoint schema.
//
// The connection is configured the way SQLite wants for a single-writer
// workload: one open connection, WAL journaling, and a busy timeout so
// concurrent readers wait for locks instead of failing.
func NewSQLiteSaver[S any](path string) (*SQLiteSaver[S], error) {
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
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id TEXT NOT NULL,
			checkpoint_ns TEXT NOT NULL,
			checkpoint_id TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,
			state TEXT NOT NULL,
			versions TEXT NOT NULL,
			metadata TEXT NOT NULL,
			PRIMARY KEY (thread_id, checkpoint_ns, checkpoint_id)
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON checkpoints(thread_id, checkpoint_ns, ts)"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create idx_checkpoints_thread: %w", err)
	}

	return &SQLiteSaver[S]{
		db:         db,
		serializer: JSONSerializer[S]{},
	}, nil
}

// WithSerializer replaces the state serializer. Must be called before use.
func (s *SQLiteSaver[S]) WithSerializer(ser Serializer[S]) *SQLiteSaver[S] {
	s.serializer = ser
	return s
}

// Put stores a checkpoint (implements Checkpointer).
func (s *SQLiteSaver[S]) Put(ctx context.Context, cfg *RunnableConfig, cp Checkpoint[S]) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	stateBytes, err := s.serializer.Marshal(cp.ChannelValues)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	versionsJSON, err := json.Marshal(cp.ChannelVersions)
	if err != nil {
		return fmt.Errorf("failed to marshal versions: %w", err)
	}
	metadataJSON, err := json.Marshal(cp.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO checkpoints (thread_id, checkpoint_ns, checkpoint_id, ts, state, versions, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, checkpoint_ns, checkpoint_id) DO UPDATE SET
			ts = excluded.ts,
			state = excluded.state,
			versions = excluded.versions,
			metadata = excluded.metadata
	`
	_, err = s.db.ExecContext(ctx, query,
		threadID(cfg), checkpointNS(cfg), cp.ID,
		cp.TS.Format(time.RFC3339Nano),
		string(stateBytes), string(versionsJSON), string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// GetTuple returns the selected checkpoint (implements Checkpointer).
func (s *SQLiteSaver[S]) GetTuple(ctx context.Context, cfg *RunnableConfig) (Checkpoint[S], error) {
	var zero Checkpoint[S]
	if err := s.ensureOpen(); err != nil {
		return zero, err
	}

	var row *sql.Row
	if cfg != nil && cfg.CheckpointID != "" {
		query := `
			SELECT checkpoint_id, ts, state, versions, metadata
			FROM checkpoints
			WHERE thread_id = ? AND checkpoint_ns = ? AND checkpoint_id = ?
		`
		row = s.db.QueryRowContext(ctx, query, threadID(cfg), checkpointNS(cfg), cfg.CheckpointID)
	} else {
		query := `
			SELECT checkpoint_id, ts, state, versions, metadata
			FROM checkpoints
			WHERE thread_id = ? AND checkpoint_ns = ?
			ORDER BY ts DESC
			LIMIT 1
		`
		row = s.db.QueryRowContext(ctx, query, threadID(cfg), checkpointNS(cfg))
	}

	cp, err := s.scanCheckpoint(row.Scan)
	if err == sql.ErrNoRows {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

// List returns checkpoints for the thread, newest first (implements Checkpointer).
func (s *SQLiteSaver[S]) List(ctx context.Context, cfg *RunnableConfig, limit int) ([]Checkpoint[S], error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT checkpoint_id, ts, state, versions, metadata
		FROM checkpoints
		WHERE thread_id = ? AND checkpoint_ns = ?
		ORDER BY ts DESC
	`
	args := []any{threadID(cfg), checkpointNS(cfg)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Checkpoint[S]
	for rows.Next() {
		cp, err := s.scanCheckpoint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoints: %w", err)
	}
	return out, nil
}

// Close closes the database connection. Double-close is a no-op.
func (s *SQLiteSaver[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteSaver[S]) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("saver is closed")
	}
	return nil
}

func (s *SQLiteSaver[S]) scanCheckpoint(scan func(...any) error) (Checkpoint[S], error) {
	var (
		cp           Checkpoint[S]
		tsStr        string
		stateJSON    string
		versionsJSON string
		metadataJSON string
	)
	if err := scan(&cp.ID, &tsStr, &stateJSON, &versionsJSON, &metadataJSON); err != nil {
		return cp, err
	}

	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return cp, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	cp.TS = ts

	cp.ChannelValues, err = s.serializer.Unmarshal([]byte(stateJSON))
	if err != nil {
		return cp, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if err := json.Unmarshal([]byte(versionsJSON), &cp.ChannelVersions); err != nil {
		return cp, fmt.Errorf("failed to unmarshal versions: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &cp.Metadata); err != nil {
		return cp, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return cp, nil
}

func threadID(cfg *RunnableConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.ThreadID
}

func checkpointNS(cfg *RunnableConfig) string {
	if cfg == nil {
		return ""
	}
	return cfg.CheckpointNS
}
