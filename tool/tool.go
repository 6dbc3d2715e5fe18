// Package tool defines the tool invocation contract used by agent graphs:
// tool catalogs (Source), call-scoped context, and the built-in sources for
// tests, long-term memory, short-term memory, HTTP endpoints, and
// composition.
package tool

import "context"

// Spec describes a callable tool to the model.
//
// InputSchema is a JSON Schema object describing the tool's arguments.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Content is the result payload of a tool call.
type Content struct {
	Text string `json:"text"`
}

// TextContent builds a plain-text tool result.
func TextContent(text string) Content {
	return Content{Text: text}
}

// Source is a catalog of tools the agent may call.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// ListTools returns the specs for every tool this source offers.
	ListTools(ctx context.Context) ([]Spec, error)

	// CallTool invokes a tool by name with parsed arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (Content, error)
}

// ContextualSource is a Source whose tools can use per-call context, such as
// the recent conversation or a stream writer. The execution layer prefers
// CallToolWithContext when a source implements it.
type ContextualSource interface {
	Source
	CallToolWithContext(ctx context.Context, name string, args map[string]any, callCtx *CallContext) (Content, error)
}

// ContextSetter is implemented by sources that hold call context between the
// start and end of a tool round. The execution layer sets the context before
// dispatching a round of calls and clears it afterwards, including when a
// call fails.
type ContextSetter interface {
	SetCallContext(callCtx *CallContext)
}

// SourceError is returned when a tool call fails inside a source.
type SourceError struct {
	Tool    string
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Tool != "" {
		return "tool " + e.Tool + ": " + e.Message
	}
	return e.Message
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
