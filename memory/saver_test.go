package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

// saverContract exercises the Checkpointer behaviors every implementation
// must share.
func saverContract(t *testing.T, newSaver func(t *testing.T) Checkpointer[chatState]) {
	t.Helper()
	ctx := context.Background()

	t.Run("get from empty thread returns ErrNotFound", func(t *testing.T) {
		saver := newSaver(t)
		cfg := &RunnableConfig{ThreadID: "t-empty"}
		_, err := saver.GetTuple(ctx, cfg)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put then get returns latest", func(t *testing.T) {
		saver := newSaver(t)
		cfg := &RunnableConfig{ThreadID: "t1"}

		first := NewCheckpoint(chatState{Messages: []string{"a"}, Turns: 1}, SourceUpdate, 0)
		second := NewCheckpoint(chatState{Messages: []string{"a", "b"}, Turns: 2}, SourceUpdate, 0)
		if err := saver.Put(ctx, cfg, first); err != nil {
			t.Fatalf("put first: %v", err)
		}
		if err := saver.Put(ctx, cfg, second); err != nil {
			t.Fatalf("put second: %v", err)
		}

		got, err := saver.GetTuple(ctx, cfg)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.ID != second.ID {
			t.Errorf("expected latest checkpoint %q, got %q", second.ID, got.ID)
		}
		if got.ChannelValues.Turns != 2 {
			t.Errorf("expected turns 2, got %d", got.ChannelValues.Turns)
		}
	})

	t.Run("get by checkpoint ID pins a specific checkpoint", func(t *testing.T) {
		saver := newSaver(t)
		cfg := &RunnableConfig{ThreadID: "t2"}

		first := NewCheckpoint(chatState{Turns: 1}, SourceUpdate, 0)
		second := NewCheckpoint(chatState{Turns: 2}, SourceUpdate, 0)
		if err := saver.Put(ctx, cfg, first); err != nil {
			t.Fatalf("put first: %v", err)
		}
		if err := saver.Put(ctx, cfg, second); err != nil {
			t.Fatalf("put second: %v", err)
		}

		pinned := &RunnableConfig{ThreadID: "t2", CheckpointID: first.ID}
		got, err := saver.GetTuple(ctx, pinned)
		if err != nil {
			t.Fatalf("get pinned: %v", err)
		}
		if got.ChannelValues.Turns != 1 {
			t.Errorf("expected pinned checkpoint turns 1, got %d", got.ChannelValues.Turns)
		}

		missing := &RunnableConfig{ThreadID: "t2", CheckpointID: "no-such-id"}
		if _, err := saver.GetTuple(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown checkpoint ID, got %v", err)
		}
	})

	t.Run("threads are isolated", func(t *testing.T) {
		saver := newSaver(t)
		cfgA := &RunnableConfig{ThreadID: "ta"}
		cfgB := &RunnableConfig{ThreadID: "tb"}

		if err := saver.Put(ctx, cfgA, NewCheckpoint(chatState{Turns: 7}, SourceUpdate, 0)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, err := saver.GetTuple(ctx, cfgB); !errors.Is(err, ErrNotFound) {
			t.Errorf("thread tb should be empty, got %v", err)
		}
	})

	t.Run("namespaces are isolated within a thread", func(t *testing.T) {
		saver := newSaver(t)
		base := &RunnableConfig{ThreadID: "tn"}
		nsCfg := &RunnableConfig{ThreadID: "tn", CheckpointNS: "fork"}

		if err := saver.Put(ctx, base, NewCheckpoint(chatState{Turns: 1}, SourceUpdate, 0)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, err := saver.GetTuple(ctx, nsCfg); !errors.Is(err, ErrNotFound) {
			t.Errorf("namespaced lineage should be empty, got %v", err)
		}
	})

	t.Run("list returns newest first and honors limit", func(t *testing.T) {
		saver := newSaver(t)
		cfg := &RunnableConfig{ThreadID: "tl"}

		cps := make([]Checkpoint[chatState], 3)
		for i := range cps {
			cps[i] = NewCheckpoint(chatState{Turns: i}, SourceUpdate, 0)
			// Spread timestamps so newest-first ordering is deterministic.
			cps[i].TS = cps[i].TS.Add(-(time.Duration(len(cps)-i) * time.Second))
			if err := saver.Put(ctx, cfg, cps[i]); err != nil {
				t.Fatalf("put %d: %v", i, err)
			}
		}

		all, err := saver.List(ctx, cfg, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 checkpoints, got %d", len(all))
		}
		if all[0].ID != cps[2].ID {
			t.Errorf("expected newest checkpoint first, got %q", all[0].ID)
		}

		limited, err := saver.List(ctx, cfg, 2)
		if err != nil {
			t.Fatalf("list limited: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 checkpoints with limit, got %d", len(limited))
		}
	})

	t.Run("put with same ID replaces", func(t *testing.T) {
		saver := newSaver(t)
		cfg := &RunnableConfig{ThreadID: "tr"}

		cp := NewCheckpoint(chatState{Turns: 1}, SourceUpdate, 0)
		if err := saver.Put(ctx, cfg, cp); err != nil {
			t.Fatalf("put: %v", err)
		}
		cp.ChannelValues.Turns = 9
		if err := saver.Put(ctx, cfg, cp); err != nil {
			t.Fatalf("put replace: %v", err)
		}

		all, err := saver.List(ctx, cfg, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected 1 checkpoint after replace, got %d", len(all))
		}
		if all[0].ChannelValues.Turns != 9 {
			t.Errorf("expected replaced turns 9, got %d", all[0].ChannelValues.Turns)
		}
	})
}

func TestMemorySaver(t *testing.T) {
	saverContract(t, func(t *testing.T) Checkpointer[chatState] {
		return NewMemorySaver[chatState]()
	})
}

func TestSQLiteSaver(t *testing.T) {
	saverContract(t, func(t *testing.T) Checkpointer[chatState] {
		saver, err := NewSQLiteSaver[chatState](":memory:")
		if err != nil {
			t.Fatalf("failed to create SQLite saver: %v", err)
		}
		t.Cleanup(func() { _ = saver.Close() })
		return saver
	})
}
