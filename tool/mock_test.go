package tool

import (
	"context"
	"errors"
	"testing"
)

func TestMockSource(t *testing.T) {
	ctx := context.Background()

	t.Run("get_time fixture answers with a date", func(t *testing.T) {
		src := GetTimeExample()
		out, err := src.CallTool(ctx, "get_time", nil)
		if err != nil {
			t.Fatalf("call: %v", err)
		}
		if out.Text != "2025-01-01T12:00:00Z" {
			t.Errorf("unexpected time: %q", out.Text)
		}
	})

	t.Run("records calls with arguments", func(t *testing.T) {
		src := GetTimeExample()
		args := map[string]any{"tz": "UTC"}
		if _, err := src.CallTool(ctx, "get_time", args); err != nil {
			t.Fatalf("call: %v", err)
		}
		if src.CallCount() != 1 {
			t.Fatalf("expected 1 recorded call, got %d", src.CallCount())
		}
		if src.Calls[0].Name != "get_time" || src.Calls[0].Args["tz"] != "UTC" {
			t.Errorf("unexpected recorded call: %+v", src.Calls[0])
		}
	})

	t.Run("unknown tool fails", func(t *testing.T) {
		src := GetTimeExample()
		if _, err := src.CallTool(ctx, "nope", nil); err == nil {
			t.Fatal("unknown tool should fail")
		}
	})

	t.Run("forced error applies to every call", func(t *testing.T) {
		src := GetTimeExample()
		wantErr := errors.New("backend down")
		src.Err = wantErr
		if _, err := src.CallTool(ctx, "get_time", nil); !errors.Is(err, wantErr) {
			t.Errorf("expected forced error, got %v", err)
		}
	})

	t.Run("contextual call records the context", func(t *testing.T) {
		src := GetTimeExample()
		callCtx := NewCallContext(nil)
		if _, err := src.CallToolWithContext(ctx, "get_time", nil, callCtx); err != nil {
			t.Fatalf("call: %v", err)
		}
		if src.LastContext != callCtx {
			t.Error("contextual call should record the context")
		}
	})
}
