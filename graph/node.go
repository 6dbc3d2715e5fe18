package graph

import "context"

// Reserved sentinel node IDs marking the entry and exit of a graph.
// They are edge endpoints only and never execute.
const (
	Start = "__start__"
	End   = "__end__"
)

// Next is the transition directive a node returns.
//
// The zero value means "continue to the next node in compiled order". Use
// Goto to jump to a named node (this is how loops are built) and Stop to end
// the run immediately.
type Next struct {
	// To names the node to jump to. Empty means follow compiled order.
	To string

	// Terminal ends the run when true.
	Terminal bool
}

// Continue returns the directive to proceed in compiled order.
func Continue() Next {
	return Next{}
}

// Goto returns the directive to jump to the named node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// Stop returns the directive to end the run.
func Stop() Next {
	return Next{Terminal: true}
}

// Node is one step of a graph.
//
// Run consumes the state and produces the successor state plus a transition
// directive. State is passed by value; a node must return the state it wants
// the rest of the run to see.
type Node[S any] interface {
	Run(ctx context.Context, state S) (S, Next, error)
}

// ContextNode is a Node that can use the per-run context during streamed
// execution, for example to emit token chunks or custom events. The engine
// calls RunWithContext instead of Run whenever a RunContext is present.
type ContextNode[S any] interface {
	Node[S]
	RunWithContext(ctx context.Context, state S, rc *RunContext[S]) (S, Next, error)
}

// NodeFunc adapts a function to the Node interface.
type NodeFunc[S any] func(ctx context.Context, state S) (S, Next, error)

// Run calls the function (implements Node).
func (f NodeFunc[S]) Run(ctx context.Context, state S) (S, Next, error) {
	return f(ctx, state)
}
