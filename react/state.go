// Package react implements the Think, Act, Observe agent loop on top of the
// graph engine: nodes, the shared agent state, tool error policies, and a
// runner that wires the standard chain with persistence and streaming.
package react

import (
	"github.com/dshills/agentgraph/model"
)

// ToolResult is the outcome of one executed tool call.
type ToolResult struct {
	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// State is the agent state threaded through the Think, Act, Observe chain.
//
// Messages is the full conversation including the system prompt. ToolCalls
// and ToolResults hold the current round only; Observe folds the results
// back into Messages and clears both. TurnCount is the number of completed
// Think/Act/Observe rounds.
type State struct {
	Messages    []model.Message  `json:"messages"`
	ToolCalls   []model.ToolCall `json:"tool_calls"`
	ToolResults []ToolResult     `json:"tool_results"`
	TurnCount   int              `json:"turn_count"`
}

// LastMessage returns the most recent message, or a zero Message when the
// conversation is empty.
func (s State) LastMessage() model.Message {
	if len(s.Messages) == 0 {
		return model.Message{}
	}
	return s.Messages[len(s.Messages)-1]
}
