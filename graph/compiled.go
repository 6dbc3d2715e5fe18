package graph

import (
	"context"

	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/memory"
)

// streamBuffer is the event channel capacity for streamed runs. Values and
// Updates sends block when the buffer is full; only Custom payloads drop.
const streamBuffer = 128

// CompiledStateGraph is an executable graph with a fixed node order.
//
// A compiled graph is immutable and safe to share: Invoke runs entirely on
// the caller's goroutine, Stream spawns one goroutine per call that owns the
// state for the run's lifetime. Concurrent runs share nothing beyond the
// node table and the checkpointer/store handles, which must themselves be
// concurrency-safe.
type CompiledStateGraph[S any] struct {
	nodes        map[string]Node[S]
	order        []string
	orderIndex   map[string]int
	checkpointer memory.Checkpointer[S]
	store        memory.Store
	middleware   NodeMiddleware[S]
}

// Order returns the compiled execution order.
func (g *CompiledStateGraph[S]) Order() []string {
	return append([]string(nil), g.order...)
}

// Store returns the attached long-term store handle, or nil.
func (g *CompiledStateGraph[S]) Store() memory.Store {
	return g.store
}

// Checkpointer returns the attached checkpointer, or nil.
func (g *CompiledStateGraph[S]) Checkpointer() memory.Checkpointer[S] {
	return g.checkpointer
}

// Invoke runs the graph to completion and returns the final state.
//
// Execution starts at the chain head and follows each node's Next
// directive: zero value proceeds in compiled order (terminating after the
// last node), Goto jumps to a named node, Stop terminates. When a
// checkpointer is attached and cfg carries a thread ID, the final state is
// written as a checkpoint on termination; that write is best-effort and
// its failure does not fail the run.
func (g *CompiledStateGraph[S]) Invoke(ctx context.Context, input S, cfg *memory.RunnableConfig) (S, error) {
	return g.run(ctx, input, cfg, nil)
}

// Stream runs the graph on its own goroutine and returns the event channel.
//
// The requested modes select which events are produced (see the stream
// package). After each node completes, a Values event (full state) precedes
// the node's Updates event; Messages and Custom events are produced only by
// context-aware nodes during their execution. The channel closes when the
// run completes, successfully or not: a run that fails emits no further
// events, so a consumer that never saw a Values event must treat the run
// as having ended without a final state.
func (g *CompiledStateGraph[S]) Stream(ctx context.Context, input S, cfg *memory.RunnableConfig, modes ...stream.Mode) <-chan stream.Event[S] {
	events := make(chan stream.Event[S], streamBuffer)
	rc := newRunContext[S](cfg, stream.NewModeSet(modes...), events)

	go func() {
		defer close(events)
		_, _ = g.run(ctx, input, cfg, rc)
	}()

	return events
}

func (g *CompiledStateGraph[S]) run(ctx context.Context, input S, cfg *memory.RunnableConfig, rc *RunContext[S]) (S, error) {
	var zero S

	if len(g.order) == 0 {
		return zero, &ExecutionError{Message: "empty graph"}
	}

	state := input
	idx := 0
	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		nodeID := g.order[idx]
		nextState, next, err := g.runNode(ctx, nodeID, state, rc)
		if err != nil {
			return zero, &NodeError{NodeID: nodeID, Err: err}
		}
		state = nextState

		if rc != nil {
			rc.emitNodeCompleted(ctx, nodeID, state)
		}

		switch {
		case next.Terminal, next.To == End:
			return g.finish(ctx, state, cfg)
		case next.To != "":
			jump, ok := g.orderIndex[next.To]
			if !ok {
				return zero, &ExecutionError{Message: "jump to unknown node: " + next.To}
			}
			idx = jump
		default:
			idx++
			if idx >= len(g.order) {
				return g.finish(ctx, state, cfg)
			}
		}
	}
}

func (g *CompiledStateGraph[S]) runNode(ctx context.Context, nodeID string, state S, rc *RunContext[S]) (S, Next, error) {
	node := g.nodes[nodeID]

	run := func(ctx context.Context, s S) (S, Next, error) {
		if rc != nil {
			if cn, ok := node.(ContextNode[S]); ok {
				return cn.RunWithContext(ctx, s, rc)
			}
		}
		return node.Run(ctx, s)
	}

	if rc != nil {
		rc.setNode(nodeID)
	}
	if g.middleware != nil {
		return g.middleware.AroundRun(ctx, nodeID, state, run)
	}
	return run(ctx, state)
}

// finish writes the terminal checkpoint, best-effort, and returns the final
// state. A persistence failure here never fails an otherwise successful run.
func (g *CompiledStateGraph[S]) finish(ctx context.Context, state S, cfg *memory.RunnableConfig) (S, error) {
	if g.checkpointer != nil && cfg != nil && cfg.ThreadID != "" {
		cp := memory.NewCheckpoint(state, memory.SourceUpdate, 0)
		_ = g.checkpointer.Put(ctx, cfg, cp)
	}
	return state, nil
}
