package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/agentgraph/memory"
)

// Tool names exposed by StoreSource.
const (
	ToolRemember       = "remember"
	ToolRecall         = "recall"
	ToolSearchMemories = "search_memories"
	ToolListMemories   = "list_memories"
)

// StoreSource exposes long-term memory as tools.
//
// It wraps a memory.Store with a fixed namespace (for example the user ID
// plus "memories") and offers remember, recall, search_memories, and
// list_memories to the model. The engine never touches the store itself;
// this source is how an agent reads and writes cross-conversation memory.
type StoreSource struct {
	store     memory.Store
	namespace memory.Namespace
}

// NewStoreSource creates a StoreSource over the given store and namespace.
func NewStoreSource(store memory.Store, ns memory.Namespace) *StoreSource {
	return &StoreSource{store: store, namespace: ns}
}

// ListTools returns the four memory tool specs (implements Source).
func (s *StoreSource) ListTools(ctx context.Context) ([]Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Spec{
		{
			Name: ToolRemember,
			Description: "Write a key-value pair to long-term memory. Call when: the user expresses a preference, " +
				"the user explicitly asks to remember something, or existing memory should be updated.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key":   map[string]any{"type": "string", "description": "Memory key"},
					"value": map[string]any{"description": "Value (any JSON)"},
				},
				"required": []string{"key", "value"},
			},
		},
		{
			Name: ToolRecall,
			Description: "Read a value by key from long-term memory. Call when you need to retrieve something " +
				"previously stored with remember.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{"type": "string", "description": "Memory key"},
				},
				"required": []string{"key"},
			},
		},
		{
			Name: ToolSearchMemories,
			Description: "Search long-term memories by query (optional) and limit (optional). Call when you need " +
				"to find relevant past information before answering or acting.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search query (optional)"},
					"limit": map[string]any{"type": "integer", "description": "Max results (optional)"},
				},
			},
		},
		{
			Name: ToolListMemories,
			Description: "List all memory keys in the current namespace. Call when you need to see what " +
				"has been stored before recalling or searching.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}, nil
}

// CallTool dispatches a memory tool call (implements Source).
func (s *StoreSource) CallTool(ctx context.Context, name string, args map[string]any) (Content, error) {
	switch name {
	case ToolRemember:
		key, ok := args["key"].(string)
		if !ok || key == "" {
			return Content{}, &SourceError{Tool: name, Message: "missing key"}
		}
		value, err := json.Marshal(args["value"])
		if err != nil {
			return Content{}, &SourceError{Tool: name, Message: "invalid value", Err: err}
		}
		if err := s.store.Put(ctx, s.namespace, key, value); err != nil {
			return Content{}, &SourceError{Tool: name, Message: "store put failed", Err: err}
		}
		return TextContent("ok"), nil

	case ToolRecall:
		key, ok := args["key"].(string)
		if !ok || key == "" {
			return Content{}, &SourceError{Tool: name, Message: "missing key"}
		}
		item, err := s.store.Get(ctx, s.namespace, key)
		if errors.Is(err, memory.ErrNotFound) {
			return Content{}, &SourceError{Tool: name, Message: "key not found", Err: err}
		}
		if err != nil {
			return Content{}, &SourceError{Tool: name, Message: "store get failed", Err: err}
		}
		return TextContent(string(item.Value)), nil

	case ToolSearchMemories:
		query, _ := args["query"].(string)
		limit := 0
		if f, ok := args["limit"].(float64); ok {
			limit = int(f)
		}
		hits, err := s.store.Search(ctx, s.namespace, query, limit)
		if err != nil {
			return Content{}, &SourceError{Tool: name, Message: "store search failed", Err: err}
		}
		results := make([]map[string]any, 0, len(hits))
		for _, h := range hits {
			results = append(results, map[string]any{
				"key":   h.Key,
				"value": json.RawMessage(h.Value),
				"score": h.Score,
			})
		}
		text, err := json.Marshal(results)
		if err != nil {
			return Content{}, &SourceError{Tool: name, Message: "failed to encode results", Err: err}
		}
		return TextContent(string(text)), nil

	case ToolListMemories:
		items, err := s.store.List(ctx, s.namespace)
		if err != nil {
			return Content{}, &SourceError{Tool: name, Message: "store list failed", Err: err}
		}
		keys := make([]string, 0, len(items))
		for _, item := range items {
			keys = append(keys, item.Key)
		}
		text, err := json.Marshal(keys)
		if err != nil {
			return Content{}, &SourceError{Tool: name, Message: "failed to encode keys", Err: err}
		}
		return TextContent(string(text)), nil

	default:
		return Content{}, &SourceError{Tool: name, Message: fmt.Sprintf("unknown tool %q", name)}
	}
}
