package react

import (
	"context"

	"github.com/dshills/agentgraph/graph"
	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/model"
)

// ThinkNode asks the model for its next turn.
//
// It reads the conversation, appends the assistant's reply, and replaces the
// state's pending tool calls with whatever the model requested (empty when
// the model answered directly).
//
// In a streamed run with ModeMessages, a client that implements
// model.StreamingClient has its tokens forwarded as Messages events while
// the turn is produced.
type ThinkNode struct {
	llm model.Client
}

// NewThinkNode creates a Think node over the given client.
func NewThinkNode(llm model.Client) *ThinkNode {
	return &ThinkNode{llm: llm}
}

// Run performs one think step (implements graph.Node).
func (n *ThinkNode) Run(ctx context.Context, s State) (State, graph.Next, error) {
	resp, err := n.llm.Invoke(ctx, s.Messages)
	if err != nil {
		return s, graph.Next{}, err
	}
	return n.apply(s, resp), graph.Continue(), nil
}

// RunWithContext performs one think step, streaming tokens when the run
// requested Messages events (implements graph.ContextNode).
func (n *ThinkNode) RunWithContext(ctx context.Context, s State, rc *graph.RunContext[State]) (State, graph.Next, error) {
	streamer, ok := n.llm.(model.StreamingClient)
	if !ok || !rc.HasMode(stream.ModeMessages) {
		return n.Run(ctx, s)
	}

	resp, err := streamer.InvokeStream(ctx, s.Messages, func(token string) {
		rc.EmitToken(ctx, token)
	})
	if err != nil {
		return s, graph.Next{}, err
	}
	return n.apply(s, resp), graph.Continue(), nil
}

func (n *ThinkNode) apply(s State, resp model.Response) State {
	s.Messages = append(s.Messages, model.AssistantMessage(resp.Content))
	s.ToolCalls = resp.ToolCalls
	return s
}
