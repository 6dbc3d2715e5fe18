package tool

import (
	"context"
	"sync"
)

// MockHandler computes the result of a mocked tool call.
type MockHandler func(args map[string]any) (Content, error)

// MockSource is a scripted Source for tests.
//
// Tools are registered with fixed specs and handlers. Every call is recorded
// for assertions, and Err forces all calls to fail.
type MockSource struct {
	mu       sync.Mutex
	specs    []Spec
	handlers map[string]MockHandler
	Err      error

	// Calls records the name and arguments of each CallTool invocation.
	Calls []MockCall

	// LastContext is the CallContext from the most recent contextual call.
	LastContext *CallContext
}

// MockCall is one recorded tool invocation.
type MockCall struct {
	Name string
	Args map[string]any
}

// NewMockSource creates an empty MockSource.
func NewMockSource() *MockSource {
	return &MockSource{handlers: make(map[string]MockHandler)}
}

// Register adds a tool with its handler.
func (m *MockSource) Register(spec Spec, handler MockHandler) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs = append(m.specs, spec)
	m.handlers[spec.Name] = handler
	return m
}

// GetTimeExample returns a MockSource with a single get_time tool that
// always reports the same timestamp. Handy as the canonical one-tool agent
// fixture.
func GetTimeExample() *MockSource {
	return NewMockSource().Register(Spec{
		Name:        "get_time",
		Description: "Get the current date and time.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}, func(map[string]any) (Content, error) {
		return TextContent("2025-01-01T12:00:00Z"), nil
	})
}

// ListTools returns the registered specs (implements Source).
func (m *MockSource) ListTools(ctx context.Context) ([]Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Spec(nil), m.specs...), nil
}

// CallTool dispatches to the registered handler (implements Source).
func (m *MockSource) CallTool(ctx context.Context, name string, args map[string]any) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args})
	handler, ok := m.handlers[name]
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return Content{}, err
	}
	if !ok {
		return Content{}, &SourceError{Tool: name, Message: "unknown tool"}
	}
	return handler(args)
}

// CallToolWithContext records the context then calls the handler
// (implements ContextualSource).
func (m *MockSource) CallToolWithContext(ctx context.Context, name string, args map[string]any, callCtx *CallContext) (Content, error) {
	m.mu.Lock()
	m.LastContext = callCtx
	m.mu.Unlock()
	return m.CallTool(ctx, name, args)
}

// CallCount returns how many tool calls have been made.
func (m *MockSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
