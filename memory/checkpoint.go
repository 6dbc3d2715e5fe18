package memory

import (
	"time"

	"github.com/google/uuid"
)

// Source records what caused a checkpoint to be written.
type Source string

const (
	// SourceInput marks a checkpoint written from initial input.
	SourceInput Source = "input"

	// SourceLoop marks a checkpoint written mid-run by the execution loop.
	SourceLoop Source = "loop"

	// SourceUpdate marks a checkpoint written from a state update, including
	// the write at run termination.
	SourceUpdate Source = "update"

	// SourceFork marks a checkpoint copied from another checkpoint.
	SourceFork Source = "fork"
)

// CheckpointMetadata describes the provenance of a checkpoint.
type CheckpointMetadata struct {
	Source    Source    `json:"source"`
	Step      int       `json:"step"`
	CreatedAt time.Time `json:"created_at"`
}

// Checkpoint is a durable snapshot of run state at a point in time.
//
// ChannelValues holds the full state. ChannelVersions tracks per-channel
// version counters; the linear engine keeps a single root channel.
type Checkpoint[S any] struct {
	ID              string             `json:"id"`
	TS              time.Time          `json:"ts"`
	ChannelValues   S                  `json:"channel_values"`
	ChannelVersions map[string]int64   `json:"channel_versions"`
	Metadata        CheckpointMetadata `json:"metadata"`
}

// NewCheckpoint snapshots state into a checkpoint with a fresh ID.
func NewCheckpoint[S any](state S, source Source, step int) Checkpoint[S] {
	now := time.Now().UTC()
	return Checkpoint[S]{
		ID:              uuid.NewString(),
		TS:              now,
		ChannelValues:   state,
		ChannelVersions: map[string]int64{"__root__": 1},
		Metadata: CheckpointMetadata{
			Source:    source,
			Step:      step,
			CreatedAt: now,
		},
	}
}
