package memory

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Namespace is a hierarchical path scoping store items, for example
// Namespace{"user-42", "memories"}. Unlike checkpoints, namespaces are not
// tied to a thread, which is what makes store data shareable across runs.
type Namespace []string

// String joins the namespace path with "/" for use as a storage key.
func (n Namespace) String() string {
	return strings.Join(n, "/")
}

// Item is a stored value with its location and timestamps.
type Item struct {
	Namespace Namespace       `json:"namespace"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SearchHit is an Item with its relevance score for a search query.
type SearchHit struct {
	Item
	Score float64 `json:"score"`
}

// Store is long-term key/value memory shared across threads.
//
// It is deliberately separate from Checkpointer: checkpoints snapshot one
// thread's run state, while the store holds data any run may read or write,
// such as user memories. Implementations must be safe for concurrent use.
type Store interface {
	// Put creates or replaces the item at (namespace, key).
	Put(ctx context.Context, ns Namespace, key string, value json.RawMessage) error

	// Get returns the item at (namespace, key), or ErrNotFound.
	Get(ctx context.Context, ns Namespace, key string) (Item, error)

	// Delete removes the item at (namespace, key). Deleting a missing item
	// is not an error.
	Delete(ctx context.Context, ns Namespace, key string) error

	// List returns every item in the namespace, ordered by key.
	List(ctx context.Context, ns Namespace) ([]Item, error)

	// Search returns items in the namespace matching the query, best first.
	// A limit of 0 means no limit. An empty query matches everything.
	Search(ctx context.Context, ns Namespace, query string, limit int) ([]SearchHit, error)
}

// matchScore implements the shared text-match scoring used by the built-in
// stores: a case-insensitive substring match on the key or the serialized
// value. Returns 0 for no match.
func matchScore(item Item, query string) float64 {
	if query == "" {
		return 1.0
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(item.Key), q) {
		return 1.0
	}
	if strings.Contains(strings.ToLower(string(item.Value)), q) {
		return 1.0
	}
	return 0
}
