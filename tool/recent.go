package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dshills/agentgraph/model"
)

// ToolGetRecentMessages is the tool name exposed by RecentMessagesSource.
const ToolGetRecentMessages = "get_recent_messages"

// RecentMessagesSource exposes the current conversation as a tool.
//
// It reads the message history from the CallContext the execution layer
// publishes before each tool round, so the tool needs no access to engine
// state. get_recent_messages returns the last N messages as a JSON array of
// {role, content} objects.
type RecentMessagesSource struct {
	mu      sync.RWMutex
	callCtx *CallContext
}

// NewRecentMessagesSource creates a RecentMessagesSource with no context set.
func NewRecentMessagesSource() *RecentMessagesSource {
	return &RecentMessagesSource{}
}

// SetCallContext publishes or clears the per-round context
// (implements ContextSetter).
func (r *RecentMessagesSource) SetCallContext(callCtx *CallContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callCtx = callCtx
}

// ListTools returns the get_recent_messages spec (implements Source).
func (r *RecentMessagesSource) ListTools(ctx context.Context) ([]Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Spec{
		{
			Name: ToolGetRecentMessages,
			Description: "(Optional) Get the last N messages from the current conversation. Use only when you need " +
				"to explicitly re-read or summarize recent turns (e.g. when prompt does not include full history). " +
				"Most agent flows can omit this tool.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "integer", "description": "Max number of messages to return (optional)"},
				},
			},
		},
	}, nil
}

// CallTool answers get_recent_messages from the stored context
// (implements Source).
func (r *RecentMessagesSource) CallTool(ctx context.Context, name string, args map[string]any) (Content, error) {
	r.mu.RLock()
	callCtx := r.callCtx
	r.mu.RUnlock()
	return r.CallToolWithContext(ctx, name, args, callCtx)
}

// CallToolWithContext answers get_recent_messages from the given context
// (implements ContextualSource).
func (r *RecentMessagesSource) CallToolWithContext(ctx context.Context, name string, args map[string]any, callCtx *CallContext) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	if name != ToolGetRecentMessages {
		return Content{}, &SourceError{Tool: name, Message: "unknown tool"}
	}

	var messages []model.Message
	if callCtx != nil {
		messages = callCtx.RecentMessages
	}

	limit := len(messages)
	if f, ok := args["limit"].(float64); ok && int(f) >= 0 {
		limit = int(f)
	}
	if limit > len(messages) {
		limit = len(messages)
	}
	slice := messages[len(messages)-limit:]

	type entry struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	out := make([]entry, 0, len(slice))
	for _, m := range slice {
		out = append(out, entry{Role: string(m.Role), Content: m.Content})
	}

	text, err := json.Marshal(out)
	if err != nil {
		return Content{}, &SourceError{Tool: name, Message: "failed to encode messages", Err: err}
	}
	return TextContent(string(text)), nil
}
