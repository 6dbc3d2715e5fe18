// Package graph provides the agentgraph execution engine: a builder that
// compiles a linear chain of nodes, and a compiled graph that runs it with
// dynamic control flow, checkpointing, streaming, and node middleware.
package graph

import (
	"github.com/dshills/agentgraph/memory"
)

// StateGraph builds a graph of nodes connected by directed edges.
//
// The static topology must form a single chain from Start to End; Compile
// validates this and fixes the execution order. Dynamic control flow (loops,
// early exits) happens at run time through the Next directives nodes return,
// not through extra edges.
//
// Type parameter S is the state type shared across the run.
//
// Example:
//
//	g := NewStateGraph[MyState]().
//	    AddNode("fetch", fetchNode).
//	    AddNode("summarize", summarizeNode).
//	    AddEdge(Start, "fetch").
//	    AddEdge("fetch", "summarize").
//	    AddEdge("summarize", End)
//
//	compiled, err := g.Compile()
type StateGraph[S any] struct {
	nodes        map[string]Node[S]
	edges        []edge
	checkpointer memory.Checkpointer[S]
	store        memory.Store
	middleware   []NodeMiddleware[S]
}

type edge struct {
	from string
	to   string
}

// NewStateGraph creates an empty builder.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes: make(map[string]Node[S]),
	}
}

// AddNode registers a node under the given ID, replacing any previous node
// with that ID.
func (g *StateGraph[S]) AddNode(nodeID string, node Node[S]) *StateGraph[S] {
	g.nodes[nodeID] = node
	return g
}

// AddEdge appends a directed edge. Either endpoint may be one of the Start
// and End sentinels.
func (g *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	g.edges = append(g.edges, edge{from: from, to: to})
	return g
}

// WithCheckpointer attaches a checkpointer. Runs supplied with a thread ID
// write a best-effort checkpoint of the final state at termination.
func (g *StateGraph[S]) WithCheckpointer(cp memory.Checkpointer[S]) *StateGraph[S] {
	g.checkpointer = cp
	return g
}

// WithStore attaches a long-term store handle. The engine never touches it;
// it is threaded through for nodes and tool sources that ask for it.
func (g *StateGraph[S]) WithStore(st memory.Store) *StateGraph[S] {
	g.store = st
	return g
}

// WithMiddleware appends node middleware. Middleware wraps every node
// invocation in the order given, outermost first.
func (g *StateGraph[S]) WithMiddleware(mw ...NodeMiddleware[S]) *StateGraph[S] {
	g.middleware = append(g.middleware, mw...)
	return g
}

// Compile validates the topology and returns the executable graph.
//
// Validation requires exactly one edge out of Start and exactly one edge
// into End, unique from/to endpoints among the interior edges, and a
// cycle-free walk from the chain head to End. The walk order becomes the
// compiled execution order. Any violation returns a CompileError and no
// graph.
func (g *StateGraph[S]) Compile() (*CompiledStateGraph[S], error) {
	// Every non-sentinel endpoint must name a registered node.
	for _, e := range g.edges {
		if e.from != Start && e.from != End {
			if _, ok := g.nodes[e.from]; !ok {
				return nil, &CompileError{Code: CodeNodeNotFound, Node: e.from, Detail: "edge references unknown node"}
			}
		}
		if e.to != Start && e.to != End {
			if _, ok := g.nodes[e.to]; !ok {
				return nil, &CompileError{Code: CodeNodeNotFound, Node: e.to, Detail: "edge references unknown node"}
			}
		}
	}

	// Exactly one edge out of Start; its target is the chain head.
	var head string
	startCount := 0
	for _, e := range g.edges {
		if e.from == Start {
			startCount++
			head = e.to
		}
	}
	if startCount == 0 {
		return nil, &CompileError{Code: CodeMissingStart, Detail: "no edge from start"}
	}
	if startCount > 1 {
		return nil, &CompileError{Code: CodeInvalidChain, Detail: "branch from start"}
	}

	// Exactly one edge into End; its source is the expected chain tail.
	var tail string
	endCount := 0
	for _, e := range g.edges {
		if e.to == End {
			endCount++
			tail = e.from
		}
	}
	if endCount != 1 {
		return nil, &CompileError{Code: CodeMissingEnd, Detail: "expected exactly one edge to end"}
	}

	// Interior edges must form a function in both directions: one outgoing
	// and one incoming edge per node.
	next := make(map[string]string)
	incoming := make(map[string]bool)
	for _, e := range g.edges {
		if e.from == Start || e.to == End {
			continue
		}
		if _, dup := next[e.from]; dup {
			return nil, &CompileError{Code: CodeInvalidChain, Node: e.from, Detail: "multiple outgoing edges"}
		}
		next[e.from] = e.to
		if incoming[e.to] {
			return nil, &CompileError{Code: CodeInvalidChain, Node: e.to, Detail: "multiple incoming edges"}
		}
		incoming[e.to] = true
	}

	// Walk head to End, accumulating the execution order.
	var order []string
	visited := make(map[string]bool)
	cur := head
	for cur != End {
		if visited[cur] {
			return nil, &CompileError{Code: CodeInvalidChain, Node: cur, Detail: "cycle"}
		}
		visited[cur] = true
		order = append(order, cur)

		nxt, ok := next[cur]
		if !ok {
			if cur != tail {
				return nil, &CompileError{Code: CodeInvalidChain, Node: cur, Detail: "tail mismatch: expected " + tail}
			}
			break
		}
		cur = nxt
	}

	orderIndex := make(map[string]int, len(order))
	nodes := make(map[string]Node[S], len(order))
	for i, id := range order {
		orderIndex[id] = i
		nodes[id] = g.nodes[id]
	}

	return &CompiledStateGraph[S]{
		nodes:        nodes,
		order:        order,
		orderIndex:   orderIndex,
		checkpointer: g.checkpointer,
		store:        g.store,
		middleware:   chainMiddleware(g.middleware),
	}, nil
}
