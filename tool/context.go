package tool

import (
	"encoding/json"

	"github.com/dshills/agentgraph/model"
)

// StreamWriter receives custom JSON payloads emitted by a tool during a
// call. Write reports whether the payload was accepted; writers backed by a
// bounded stream may drop payloads under backpressure.
type StreamWriter interface {
	Write(payload json.RawMessage) bool
}

// StreamWriterFunc adapts a function to a StreamWriter.
type StreamWriterFunc func(payload json.RawMessage) bool

func (f StreamWriterFunc) Write(payload json.RawMessage) bool {
	return f(payload)
}

// discardWriter drops every payload.
type discardWriter struct{}

func (discardWriter) Write(json.RawMessage) bool { return false }

// DiscardWriter returns a StreamWriter that drops everything, for calls made
// outside a streaming run.
func DiscardWriter() StreamWriter {
	return discardWriter{}
}

// CallContext carries per-call information into tool implementations.
//
// RecentMessages is the conversation visible to the node making the call,
// which lets tools such as get_recent_messages read short-term memory.
// Writer, when set, lets tools publish custom stream events.
type CallContext struct {
	RecentMessages []model.Message
	Writer         StreamWriter
}

// NewCallContext builds a CallContext over the given conversation with no
// stream writer.
func NewCallContext(recent []model.Message) *CallContext {
	return &CallContext{
		RecentMessages: append([]model.Message(nil), recent...),
		Writer:         DiscardWriter(),
	}
}

// WithWriter sets the stream writer and returns the context.
func (c *CallContext) WithWriter(w StreamWriter) *CallContext {
	if w == nil {
		w = DiscardWriter()
	}
	c.Writer = w
	return c
}

// Emit writes a custom payload to the stream writer, if any. Returns false
// when there is no writer or the payload was dropped.
func (c *CallContext) Emit(payload json.RawMessage) bool {
	if c == nil || c.Writer == nil {
		return false
	}
	return c.Writer.Write(payload)
}
