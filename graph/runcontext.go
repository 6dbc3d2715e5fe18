package graph

import (
	"context"
	"encoding/json"

	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/memory"
)

// RunContext is the per-run context handed to context-aware nodes during a
// streamed run. It exposes the run's config and lets nodes publish Messages
// and Custom events on the run's channel.
//
// A RunContext is owned by a single run goroutine and must not be retained
// past the node invocation it was passed to.
type RunContext[S any] struct {
	config *memory.RunnableConfig
	modes  stream.ModeSet
	events chan<- stream.Event[S]
	nodeID string
}

func newRunContext[S any](cfg *memory.RunnableConfig, modes stream.ModeSet, events chan<- stream.Event[S]) *RunContext[S] {
	return &RunContext[S]{
		config: cfg,
		modes:  modes,
		events: events,
	}
}

func (rc *RunContext[S]) setNode(nodeID string) {
	rc.nodeID = nodeID
}

// Config returns the run's RunnableConfig, which may be nil.
func (rc *RunContext[S]) Config() *memory.RunnableConfig {
	return rc.config
}

// NodeID returns the ID of the node currently executing.
func (rc *RunContext[S]) NodeID() string {
	return rc.nodeID
}

// HasMode reports whether the run requested the given stream mode.
func (rc *RunContext[S]) HasMode(m stream.Mode) bool {
	return rc.modes.Has(m)
}

// EmitToken publishes an LLM token chunk as a Messages event. It is a no-op
// unless the run requested ModeMessages. The send waits for channel capacity
// so token order is preserved, giving up only if ctx is done.
func (rc *RunContext[S]) EmitToken(ctx context.Context, token string) {
	if !rc.modes.Has(stream.ModeMessages) {
		return
	}
	ev := stream.Event[S]{
		Type:  stream.EventMessages,
		Chunk: stream.MessageChunk{Content: token},
		Meta:  stream.Metadata{Node: rc.nodeID},
	}
	select {
	case rc.events <- ev:
	case <-ctx.Done():
	}
}

// EmitCustom publishes an arbitrary JSON payload as a Custom event. Custom
// events are UI-only signals: the send never blocks, and the payload is
// dropped when the buffer is full or ModeCustom was not requested. Returns
// whether the payload was accepted.
func (rc *RunContext[S]) EmitCustom(payload json.RawMessage) bool {
	if !rc.modes.Has(stream.ModeCustom) {
		return false
	}
	ev := stream.Event[S]{
		Type:    stream.EventCustom,
		Payload: payload,
	}
	select {
	case rc.events <- ev:
		return true
	default:
		return false
	}
}

// emitNodeCompleted publishes the Values then Updates events for a finished
// node. These are the events a consumer relies on to recover the final
// state, so both sends wait for capacity rather than drop.
func (rc *RunContext[S]) emitNodeCompleted(ctx context.Context, nodeID string, state S) {
	if rc.modes.Has(stream.ModeValues) {
		ev := stream.Event[S]{Type: stream.EventValues, State: state}
		select {
		case rc.events <- ev:
		case <-ctx.Done():
			return
		}
	}
	if rc.modes.Has(stream.ModeUpdates) {
		ev := stream.Event[S]{Type: stream.EventUpdates, NodeID: nodeID, State: state}
		select {
		case rc.events <- ev:
		case <-ctx.Done():
		}
	}
}
