package memory

import (
	"context"
	"sync"
)

// MemorySaver is an in-memory Checkpointer.
//
// It keeps every checkpoint for every thread in process memory, so it is
// suited to tests and single-process agents. All data is lost when the
// process exits.
type MemorySaver[S any] struct {
	mu      sync.RWMutex
	threads map[string][]Checkpoint[S]
}

// NewMemorySaver creates an empty MemorySaver.
func NewMemorySaver[S any]() *MemorySaver[S] {
	return &MemorySaver[S]{
		threads: make(map[string][]Checkpoint[S]),
	}
}

// Put stores a checkpoint for the config's thread (implements Checkpointer).
func (m *MemorySaver[S]) Put(ctx context.Context, cfg *RunnableConfig, cp Checkpoint[S]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := threadKey(cfg)
	cps := m.threads[key]
	for i := range cps {
		if cps[i].ID == cp.ID {
			cps[i] = cp
			return nil
		}
	}
	m.threads[key] = append(cps, cp)
	return nil
}

// GetTuple returns the selected checkpoint (implements Checkpointer).
func (m *MemorySaver[S]) GetTuple(ctx context.Context, cfg *RunnableConfig) (Checkpoint[S], error) {
	var zero Checkpoint[S]
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.threads[threadKey(cfg)]
	if len(cps) == 0 {
		return zero, ErrNotFound
	}

	if cfg != nil && cfg.CheckpointID != "" {
		for i := range cps {
			if cps[i].ID == cfg.CheckpointID {
				return cps[i], nil
			}
		}
		return zero, ErrNotFound
	}

	return cps[len(cps)-1], nil
}

// List returns checkpoints for the thread, newest first (implements Checkpointer).
func (m *MemorySaver[S]) List(ctx context.Context, cfg *RunnableConfig, limit int) ([]Checkpoint[S], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.threads[threadKey(cfg)]
	out := make([]Checkpoint[S], 0, len(cps))
	for i := len(cps) - 1; i >= 0; i-- {
		out = append(out, cps[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
