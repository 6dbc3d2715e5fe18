package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a Store backed by process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]Item // namespace -> key -> item
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		items: make(map[string]map[string]Item),
	}
}

// Put creates or replaces an item (implements Store).
func (s *InMemoryStore) Put(ctx context.Context, ns Namespace, key string, value json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nsKey := ns.String()
	bucket, ok := s.items[nsKey]
	if !ok {
		bucket = make(map[string]Item)
		s.items[nsKey] = bucket
	}

	now := time.Now().UTC()
	item := Item{
		Namespace: append(Namespace(nil), ns...),
		Key:       key,
		Value:     append(json.RawMessage(nil), value...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, exists := bucket[key]; exists {
		item.CreatedAt = prev.CreatedAt
	}
	bucket[key] = item
	return nil
}

// Get returns an item or ErrNotFound (implements Store).
func (s *InMemoryStore) Get(ctx context.Context, ns Namespace, key string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[ns.String()][key]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

// Delete removes an item (implements Store).
func (s *InMemoryStore) Delete(ctx context.Context, ns Namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items[ns.String()], key)
	return nil
}

// List returns namespace items ordered by key (implements Store).
func (s *InMemoryStore) List(ctx context.Context, ns Namespace) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.items[ns.String()]
	out := make([]Item, 0, len(bucket))
	for _, item := range bucket {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Search returns matching items, ordered by key (implements Store).
func (s *InMemoryStore) Search(ctx context.Context, ns Namespace, query string, limit int) ([]SearchHit, error) {
	items, err := s.List(ctx, ns)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, item := range items {
		score := matchScore(item, query)
		if score == 0 {
			continue
		}
		hits = append(hits, SearchHit{Item: item, Score: score})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}
