package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLSaver is a MySQL-backed Checkpointer for multi-process deployments.
//
// Unlike SQLiteSaver it supports concurrent writers across processes, at the
// cost of running a database server. The DSN follows go-sql-driver/mysql
// conventions, for example "user:pass@tcp(localhost:3306)/agentgraph?parseTime=true".
type MySQLSaver[S any] struct {
	db         *sql.DB
	serializer Serializer[S]
	mu         sync.RWMutex
	closed     bool
}

// NewMySQLSaver connects to MySQL, verifies the connection, and prepares the
// checkpoint schema.
func NewMySQLSaver[S any](dsn string) (*MySQLSaver[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id VARCHAR(255) NOT NULL,
			checkpoint_ns VARCHAR(255) NOT NULL,
			checkpoint_id VARCHAR(64) NOT NULL,
			ts DATETIME(6) NOT NULL,
			state JSON NOT NULL,
			versions JSON NOT NULL,
			metadata JSON NOT NULL,
			PRIMARY KEY (thread_id, checkpoint_ns, checkpoint_id),
			INDEX idx_checkpoints_thread (thread_id, checkpoint_ns, ts)
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}

	return &MySQLSaver[S]{
		db:         db,
		serializer: JSONSerializer[S]{},
	}, nil
}

// WithSerializer replaces the state serializer. Must be called before use.
func (s *MySQLSaver[S]) WithSerializer(ser Serializer[S]) *MySQLSaver[S] {
	s.serializer = ser
	return s
}

// Put stores a checkpoint (implements Checkpointer).
func (s *MySQLSaver[S]) Put(ctx context.Context, cfg *RunnableConfig, cp Checkpoint[S]) error {
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
		ON DUPLICATE KEY UPDATE
			ts = VALUES(ts),
			state = VALUES(state),
			versions = VALUES(versions),
			metadata = VALUES(metadata)
	`
	_, err = s.db.ExecContext(ctx, query,
		threadID(cfg), checkpointNS(cfg), cp.ID,
		cp.TS.UTC(),
		string(stateBytes), string(versionsJSON), string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// GetTuple returns the selected checkpoint (implements Checkpointer).
func (s *MySQLSaver[S]) GetTuple(ctx context.Context, cfg *RunnableConfig) (Checkpoint[S], error) {
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
func (s *MySQLSaver[S]) List(ctx context.Context, cfg *RunnableConfig, limit int) ([]Checkpoint[S], error) {
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
func (s *MySQLSaver[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *MySQLSaver[S]) ensureOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("saver is closed")
	}
	return nil
}

func (s *MySQLSaver[S]) scanCheckpoint(scan func(...any) error) (Checkpoint[S], error) {
	var (
		cp           Checkpoint[S]
		ts           time.Time
		stateJSON    []byte
		versionsJSON []byte
		metadataJSON []byte
	)
	if err := scan(&cp.ID, &ts, &stateJSON, &versionsJSON, &metadataJSON); err != nil {
		return cp, err
	}
	cp.TS = ts

	var err error
	cp.ChannelValues, err = s.serializer.Unmarshal(stateJSON)
	if err != nil {
		return cp, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if err := json.Unmarshal(versionsJSON, &cp.ChannelVersions); err != nil {
		return cp, fmt.Errorf("failed to unmarshal versions: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &cp.Metadata); err != nil {
		return cp, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return cp, nil
}
