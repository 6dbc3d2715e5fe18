package memory

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a checkpoint or store item doesn't exist.
var ErrNotFound = errors.New("not found")

// Checkpointer persists checkpoints keyed by thread and namespace.
//
// Implementations must be safe for concurrent use. All methods take the
// RunnableConfig that scopes the operation: ThreadID and CheckpointNS select
// the lineage, and CheckpointID (reads only) pins a specific checkpoint.
type Checkpointer[S any] interface {
	// Put stores a checkpoint under the config's thread and namespace.
	// A checkpoint with the same ID replaces the previous one.
	Put(ctx context.Context, cfg *RunnableConfig, cp Checkpoint[S]) error

	// GetTuple returns the checkpoint selected by the config: the one named
	// by CheckpointID if set, otherwise the latest for the thread.
	// Returns ErrNotFound when no matching checkpoint exists.
	GetTuple(ctx context.Context, cfg *RunnableConfig) (Checkpoint[S], error)

	// List returns checkpoints for the config's thread, newest first.
	// A limit of 0 means no limit.
	List(ctx context.Context, cfg *RunnableConfig, limit int) ([]Checkpoint[S], error)
}

// threadKey builds the composite key for a thread lineage.
func threadKey(cfg *RunnableConfig) string {
	if cfg == nil {
		return "|"
	}
	return cfg.ThreadID + "|" + cfg.CheckpointNS
}
