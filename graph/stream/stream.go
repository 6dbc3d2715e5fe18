// Package stream defines the event vocabulary for streamed graph execution.
//
// A streaming run emits Event values on a channel as nodes complete. Which
// event kinds are produced is controlled by the set of Modes requested when
// the run starts. The channel closing signals that the run is complete.
package stream

import "encoding/json"

// Mode selects a category of events to receive from a streaming run.
type Mode string

const (
	// ModeValues emits the full state after each node completes.
	ModeValues Mode = "values"

	// ModeUpdates emits the node ID together with the state it produced.
	ModeUpdates Mode = "updates"

	// ModeMessages emits LLM token chunks as they are generated.
	// Only nodes that are aware of the run context produce these.
	ModeMessages Mode = "messages"

	// ModeCustom emits arbitrary JSON payloads written by tools or nodes.
	ModeCustom Mode = "custom"
)

// ModeSet is the set of modes requested for a streaming run.
type ModeSet map[Mode]struct{}

// NewModeSet builds a ModeSet from the given modes.
func NewModeSet(modes ...Mode) ModeSet {
	ms := make(ModeSet, len(modes))
	for _, m := range modes {
		ms[m] = struct{}{}
	}
	return ms
}

// Has reports whether the set contains the given mode.
func (ms ModeSet) Has(m Mode) bool {
	_, ok := ms[m]
	return ok
}

// EventType identifies the kind of a stream event.
type EventType string

const (
	EventValues   EventType = "values"
	EventUpdates  EventType = "updates"
	EventMessages EventType = "messages"
	EventCustom   EventType = "custom"
)

// Metadata carries provenance for Messages events.
type Metadata struct {
	// Node is the ID of the node that produced the chunk.
	Node string `json:"node"`
}

// MessageChunk is a fragment of LLM output produced during a Messages event.
type MessageChunk struct {
	Content string `json:"content"`
}

// Event is a single item produced by a streaming run.
//
// Exactly one payload group is populated depending on Type:
//   - EventValues: State
//   - EventUpdates: NodeID and State
//   - EventMessages: Chunk and Meta
//   - EventCustom: Payload
type Event[S any] struct {
	Type EventType

	// State is the full state (Values) or the state a node produced (Updates).
	State S

	// NodeID is the node that produced an Updates event.
	NodeID string

	// Chunk and Meta describe a Messages event.
	Chunk MessageChunk
	Meta  Metadata

	// Payload is the raw JSON body of a Custom event.
	Payload json.RawMessage
}
