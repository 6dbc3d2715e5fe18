// Package model defines the chat message types and the client interface
// through which graph nodes talk to LLM providers. Concrete adapters live in
// the model/openai, model/anthropic, and model/google subpackages; MockClient
// covers tests.
package model

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat history entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolCall is a request from the model to invoke a named tool.
//
// Arguments is the raw JSON argument object as produced by the provider.
// Models sometimes emit malformed or empty argument strings, so consumers
// must parse leniently.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is one model turn: assistant text plus any tool calls.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Client is the minimal interface an LLM provider must implement.
type Client interface {
	// Invoke sends the conversation and returns the model's next turn.
	Invoke(ctx context.Context, messages []Message) (Response, error)
}

// StreamingClient is a Client that can deliver output tokens incrementally.
//
// InvokeStream calls onToken for each content fragment as it arrives and
// still returns the complete Response at the end. Tool calls are not
// streamed; they appear only in the final Response.
type StreamingClient interface {
	Client
	InvokeStream(ctx context.Context, messages []Message, onToken func(token string)) (Response, error)
}
