package graph

// Compile error codes. A failed Compile identifies the offending node or
// edge through the CompileError fields.
const (
	CodeNodeNotFound = "NODE_NOT_FOUND"
	CodeMissingStart = "MISSING_START"
	CodeMissingEnd   = "MISSING_END"
	CodeInvalidChain = "INVALID_CHAIN"
)

// CompileError reports a structural problem found while compiling a graph.
// No partial graph is observable after a compile failure.
type CompileError struct {
	// Code is one of the Code* constants.
	Code string

	// Node is the offending node ID, when one can be named.
	Node string

	// Detail describes the problem.
	Detail string
}

func (e *CompileError) Error() string {
	msg := e.Code + ": " + e.Detail
	if e.Node != "" {
		msg += " (node " + e.Node + ")"
	}
	return msg
}

// ExecutionError reports a run-level failure that is not attributable to a
// single node's own logic, such as invoking an empty graph or jumping to an
// unknown node.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return "execution failed: " + e.Message
}

// NodeError wraps a failure from one node's execution, identifying the node.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return "node " + e.NodeID + ": " + e.Err.Error()
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
