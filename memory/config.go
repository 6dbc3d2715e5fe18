// Package memory provides the persistence contracts for graph execution:
// thread-scoped checkpoints of run state, and a cross-thread key/value store
// for long-term data such as agent memories.
package memory

// RunnableConfig identifies the thread and checkpoint scope for a run.
//
// ThreadID groups checkpoints belonging to one conversation. CheckpointID,
// when set, pins reads to a specific checkpoint instead of the latest one.
// CheckpointNS separates independent checkpoint lineages within a thread
// (empty for the default lineage). UserID is carried for application use,
// for example to namespace long-term store entries.
type RunnableConfig struct {
	ThreadID     string `json:"thread_id,omitempty"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
	CheckpointNS string `json:"checkpoint_ns,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}
