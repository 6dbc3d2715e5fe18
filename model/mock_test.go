package model

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockClientInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("returns scripted content", func(t *testing.T) {
		mock := NewMockClient("Hello from mock.")
		resp, err := mock.Invoke(ctx, []Message{UserMessage("hi")})
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if resp.Content != "Hello from mock." {
			t.Errorf("unexpected content: %q", resp.Content)
		}
		if len(resp.ToolCalls) != 0 {
			t.Errorf("expected no tool calls, got %d", len(resp.ToolCalls))
		}
	})

	t.Run("sequences responses and repeats the last", func(t *testing.T) {
		mock := NewMockClientWithToolCall(ToolCall{ID: "c1", Name: "get_time", Arguments: "{}"}, "It is noon.")

		first, err := mock.Invoke(ctx, nil)
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if len(first.ToolCalls) != 1 || first.ToolCalls[0].Name != "get_time" {
			t.Fatalf("first response should carry the tool call, got %+v", first)
		}

		second, err := mock.Invoke(ctx, nil)
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if second.Content != "It is noon." {
			t.Errorf("second response content: %q", second.Content)
		}

		third, err := mock.Invoke(ctx, nil)
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if third.Content != "It is noon." {
			t.Errorf("exhausted script should repeat last response, got %q", third.Content)
		}
	})

	t.Run("records calls", func(t *testing.T) {
		mock := NewMockClient("ok")
		msgs := []Message{SystemMessage("sys"), UserMessage("question")}
		if _, err := mock.Invoke(ctx, msgs); err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if mock.CallCount() != 1 {
			t.Errorf("expected 1 call, got %d", mock.CallCount())
		}
		last := mock.LastCall()
		if len(last) != 2 || last[1].Content != "question" {
			t.Errorf("last call should capture messages, got %+v", last)
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		wantErr := errors.New("provider down")
		mock := &MockClient{Err: wantErr}
		if _, err := mock.Invoke(ctx, nil); !errors.Is(err, wantErr) {
			t.Errorf("expected configured error, got %v", err)
		}
	})
}

func TestMockClientInvokeStream(t *testing.T) {
	mock := NewMockClient("one two three")

	var tokens []string
	resp, err := mock.InvokeStream(context.Background(), nil, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(tokens) == 0 {
		t.Fatal("expected token callbacks")
	}
	if joined := strings.Join(tokens, ""); joined != resp.Content {
		t.Errorf("tokens should reassemble to content: %q vs %q", joined, resp.Content)
	}
}
