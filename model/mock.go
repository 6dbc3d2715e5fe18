package model

import (
	"context"
	"strings"
	"sync"
)

// MockClient is a scripted Client for tests.
//
// It returns Responses in order, repeating the last one once the script is
// exhausted, and records every Invoke call for assertions. If Err is set it
// is returned instead of a response.
//
// MockClient implements StreamingClient: InvokeStream splits the response
// content on word boundaries and feeds the pieces to onToken.
type MockClient struct {
	mu        sync.Mutex
	Responses []Response
	Err       error
	Calls     [][]Message
	callIndex int
}

// NewMockClient creates a mock that always replies with the given text and
// no tool calls.
func NewMockClient(content string) *MockClient {
	return &MockClient{
		Responses: []Response{{Content: content}},
	}
}

// NewMockClientWithToolCall creates a mock whose first reply requests the
// given tool call and whose second reply is the given text. This scripts the
// common one-round agent loop: call a tool, then answer.
func NewMockClientWithToolCall(call ToolCall, finalContent string) *MockClient {
	return &MockClient{
		Responses: []Response{
			{ToolCalls: []ToolCall{call}},
			{Content: finalContent},
		},
	}
}

// Invoke returns the next scripted response (implements Client).
func (m *MockClient) Invoke(ctx context.Context, messages []Message) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, append([]Message(nil), messages...))

	if m.Err != nil {
		return Response{}, m.Err
	}
	if len(m.Responses) == 0 {
		return Response{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.callIndex++
	return m.Responses[idx], nil
}

// InvokeStream replays the scripted response as word-sized token chunks
// (implements StreamingClient).
func (m *MockClient) InvokeStream(ctx context.Context, messages []Message, onToken func(string)) (Response, error) {
	resp, err := m.Invoke(ctx, messages)
	if err != nil {
		return Response{}, err
	}

	if onToken != nil && resp.Content != "" {
		words := strings.SplitAfter(resp.Content, " ")
		for _, w := range words {
			if w == "" {
				continue
			}
			onToken(w)
		}
	}
	return resp, nil
}

// CallCount returns how many times Invoke has been called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the messages from the most recent Invoke, or nil.
func (m *MockClient) LastCall() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1]
}
