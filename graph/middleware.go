package graph

import (
	"context"
	"fmt"
	"io"
	"time"
)

// NodeRunner is the continuation a middleware receives: invoking it performs
// the wrapped node logic (context-aware when the run is streamed).
type NodeRunner[S any] func(ctx context.Context, state S) (S, Next, error)

// NodeMiddleware wraps every node invocation of a compiled graph.
//
// Implementations must call next at most once and either propagate its
// result or substitute their own. This is the seam for cross-cutting
// concerns: logging, metrics, tracing.
type NodeMiddleware[S any] interface {
	AroundRun(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error)
}

// MiddlewareFunc adapts a function to NodeMiddleware.
type MiddlewareFunc[S any] func(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error)

// AroundRun calls the function (implements NodeMiddleware).
func (f MiddlewareFunc[S]) AroundRun(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error) {
	return f(ctx, nodeID, state, next)
}

// chainMiddleware composes middleware so the first entry is outermost.
// Returns nil for an empty list.
func chainMiddleware[S any](mws []NodeMiddleware[S]) NodeMiddleware[S] {
	if len(mws) == 0 {
		return nil
	}
	if len(mws) == 1 {
		return mws[0]
	}
	return MiddlewareFunc[S](func(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error) {
		wrapped := next
		for i := len(mws) - 1; i >= 1; i-- {
			mw := mws[i]
			inner := wrapped
			wrapped = func(ctx context.Context, s S) (S, Next, error) {
				return mw.AroundRun(ctx, nodeID, s, inner)
			}
		}
		return mws[0].AroundRun(ctx, nodeID, state, wrapped)
	})
}

// LoggingMiddleware writes an enter and exit line per node invocation.
//
// Lines are plain key=value text:
//
//	node_enter node=think
//	node_exit node=think duration_ms=412 err="llm timeout"
type LoggingMiddleware[S any] struct {
	w io.Writer
}

// NewLoggingMiddleware creates a LoggingMiddleware writing to w.
func NewLoggingMiddleware[S any](w io.Writer) *LoggingMiddleware[S] {
	return &LoggingMiddleware[S]{w: w}
}

// AroundRun logs around the node invocation (implements NodeMiddleware).
func (l *LoggingMiddleware[S]) AroundRun(ctx context.Context, nodeID string, state S, next NodeRunner[S]) (S, Next, error) {
	fmt.Fprintf(l.w, "node_enter node=%s\n", nodeID)
	start := time.Now()

	outState, outNext, err := next(ctx, state)

	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		fmt.Fprintf(l.w, "node_exit node=%s duration_ms=%d err=%q\n", nodeID, elapsed, err.Error())
	} else {
		fmt.Fprintf(l.w, "node_exit node=%s duration_ms=%d\n", nodeID, elapsed)
	}
	return outState, outNext, err
}
