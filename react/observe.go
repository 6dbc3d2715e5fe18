package react

import (
	"context"
	"fmt"

	"github.com/dshills/agentgraph/graph"
	"github.com/dshills/agentgraph/model"
)

// ObserveNode folds tool results back into the conversation.
//
// When the think step produced no tool calls, the agent has answered and the
// run stops. Otherwise each tool result is appended as a user-visible
// observation, the round's calls and results are cleared, and the turn count
// advances. A looping observe node then jumps back to think so the model can
// react to what the tools returned; a non-looping one stops after a single
// round.
type ObserveNode struct {
	loop bool
}

// NewObserveNode creates an observe node that stops after one round.
func NewObserveNode() *ObserveNode {
	return &ObserveNode{}
}

// WithLoop creates an observe node that jumps back to the think node after
// folding in results.
func WithLoop() *ObserveNode {
	return &ObserveNode{loop: true}
}

// Run performs one observe step (implements graph.Node).
func (n *ObserveNode) Run(ctx context.Context, s State) (State, graph.Next, error) {
	if len(s.ToolCalls) == 0 {
		return s, graph.Stop(), nil
	}

	for _, result := range s.ToolResults {
		s.Messages = append(s.Messages, model.UserMessage(
			fmt.Sprintf("Tool '%s' result: %s", result.Name, result.Content)))
	}
	s.ToolCalls = nil
	s.ToolResults = nil
	s.TurnCount++

	if n.loop {
		return s, graph.Goto("think"), nil
	}
	return s, graph.Stop(), nil
}
