package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/agentgraph/memory"
)

func newStoreSource(t *testing.T) (*StoreSource, memory.Store) {
	t.Helper()
	store := memory.NewInMemoryStore()
	ns := memory.Namespace{"user-1", "memories"}
	return NewStoreSource(store, ns), store
}

func TestStoreSourceListTools(t *testing.T) {
	src, _ := newStoreSource(t)
	specs, err := src.ListTools(context.Background())
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}

	want := map[string]bool{
		ToolRemember:       false,
		ToolRecall:         false,
		ToolSearchMemories: false,
		ToolListMemories:   false,
	}
	for _, spec := range specs {
		if _, ok := want[spec.Name]; !ok {
			t.Errorf("unexpected tool %q", spec.Name)
			continue
		}
		want[spec.Name] = true
		if spec.Description == "" {
			t.Errorf("tool %q should have a description", spec.Name)
		}
		if spec.InputSchema["type"] != "object" {
			t.Errorf("tool %q schema should be an object", spec.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestStoreSourceRememberRecall(t *testing.T) {
	ctx := context.Background()
	src, _ := newStoreSource(t)

	out, err := src.CallTool(ctx, ToolRemember, map[string]any{
		"key":   "favorite_color",
		"value": "blue",
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if out.Text != "ok" {
		t.Errorf("remember should answer ok, got %q", out.Text)
	}

	got, err := src.CallTool(ctx, ToolRecall, map[string]any{"key": "favorite_color"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if got.Text != `"blue"` {
		t.Errorf("recall should return the stored JSON value, got %q", got.Text)
	}
}

func TestStoreSourceRecallMissingKey(t *testing.T) {
	src, _ := newStoreSource(t)
	_, err := src.CallTool(context.Background(), ToolRecall, map[string]any{"key": "nope"})
	if err == nil {
		t.Fatal("recall of a missing key should fail")
	}
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceError, got %T", err)
	}
	if !strings.Contains(srcErr.Message, "not found") {
		t.Errorf("error should mention not found, got %q", srcErr.Message)
	}
}

func TestStoreSourceRememberMissingKeyArg(t *testing.T) {
	src, _ := newStoreSource(t)
	if _, err := src.CallTool(context.Background(), ToolRemember, map[string]any{"value": 1}); err == nil {
		t.Fatal("remember without key should fail")
	}
}

func TestStoreSourceSearchAndList(t *testing.T) {
	ctx := context.Background()
	src, _ := newStoreSource(t)

	for key, value := range map[string]any{
		"likes_coffee": true,
		"home_city":    "Lisbon",
	} {
		if _, err := src.CallTool(ctx, ToolRemember, map[string]any{"key": key, "value": value}); err != nil {
			t.Fatalf("remember %q: %v", key, err)
		}
	}

	t.Run("search matches by substring", func(t *testing.T) {
		out, err := src.CallTool(ctx, ToolSearchMemories, map[string]any{"query": "coffee", "limit": float64(5)})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		var hits []struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
			Score float64         `json:"score"`
		}
		if err := json.Unmarshal([]byte(out.Text), &hits); err != nil {
			t.Fatalf("search result should be JSON: %v", err)
		}
		if len(hits) != 1 || hits[0].Key != "likes_coffee" {
			t.Errorf("expected one coffee hit, got %+v", hits)
		}
	})

	t.Run("list returns all keys", func(t *testing.T) {
		out, err := src.CallTool(ctx, ToolListMemories, nil)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var keys []string
		if err := json.Unmarshal([]byte(out.Text), &keys); err != nil {
			t.Fatalf("list result should be JSON: %v", err)
		}
		if len(keys) != 2 {
			t.Errorf("expected 2 keys, got %v", keys)
		}
	})
}

func TestStoreSourceUnknownTool(t *testing.T) {
	src, _ := newStoreSource(t)
	if _, err := src.CallTool(context.Background(), "frobnicate", nil); err == nil {
		t.Fatal("unknown tool should fail")
	}
}
