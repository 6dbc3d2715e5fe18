package react

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/memory"
	"github.com/dshills/agentgraph/model"
	"github.com/dshills/agentgraph/tool"
)

func TestBuildInitialState(t *testing.T) {
	t.Run("fresh conversation", func(t *testing.T) {
		s, err := BuildInitialState(context.Background(), "hello", nil, nil, "")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if len(s.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(s.Messages))
		}
		if s.Messages[0].Role != model.RoleSystem || s.Messages[0].Content != SystemPrompt {
			t.Error("first message should carry the default system prompt")
		}
		if s.Messages[1].Role != model.RoleUser || s.Messages[1].Content != "hello" {
			t.Errorf("second message = %+v", s.Messages[1])
		}
	})

	t.Run("custom system prompt", func(t *testing.T) {
		s, err := BuildInitialState(context.Background(), "hello", nil, nil, "be terse")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if s.Messages[0].Content != "be terse" {
			t.Errorf("system prompt = %q", s.Messages[0].Content)
		}
	})

	t.Run("resumes from checkpoint", func(t *testing.T) {
		saver := memory.NewMemorySaver[State]()
		cfg := &memory.RunnableConfig{ThreadID: "t1"}
		history := State{
			Messages: []model.Message{
				model.SystemMessage(SystemPrompt),
				model.UserMessage("first"),
				model.AssistantMessage("Reply to first"),
			},
			ToolCalls:   []model.ToolCall{{Name: "stale"}},
			ToolResults: []ToolResult{{Content: "stale"}},
			TurnCount:   2,
		}
		cp := memory.NewCheckpoint(history, memory.SourceUpdate, 0)
		if err := saver.Put(context.Background(), cfg, cp); err != nil {
			t.Fatalf("put: %v", err)
		}

		s, err := BuildInitialState(context.Background(), "second", saver, cfg, "")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if len(s.Messages) != 4 {
			t.Fatalf("expected 4 messages, got %d", len(s.Messages))
		}
		if s.LastMessage().Content != "second" {
			t.Errorf("last message = %+v", s.LastMessage())
		}
		if len(s.ToolCalls) != 0 || len(s.ToolResults) != 0 {
			t.Error("stale tool calls and results should be cleared")
		}
		if s.TurnCount != 2 {
			t.Errorf("turn count = %d, want 2", s.TurnCount)
		}
	})

	t.Run("missing checkpoint falls back to fresh", func(t *testing.T) {
		saver := memory.NewMemorySaver[State]()
		cfg := &memory.RunnableConfig{ThreadID: "untouched"}

		s, err := BuildInitialState(context.Background(), "hello", saver, cfg, "")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if len(s.Messages) != 2 {
			t.Fatalf("expected fresh state, got %d messages", len(s.Messages))
		}
	})

	t.Run("checkpointer failure propagates", func(t *testing.T) {
		cfg := &memory.RunnableConfig{ThreadID: "t1"}
		_, err := BuildInitialState(context.Background(), "hello", brokenSaver{}, cfg, "")
		if err == nil || !strings.Contains(err.Error(), "disk error") {
			t.Errorf("expected saver error, got %v", err)
		}
	})
}

// brokenSaver fails every read.
type brokenSaver struct{}

func (brokenSaver) Put(ctx context.Context, cfg *memory.RunnableConfig, cp memory.Checkpoint[State]) error {
	return nil
}

func (brokenSaver) GetTuple(ctx context.Context, cfg *memory.RunnableConfig) (memory.Checkpoint[State], error) {
	return memory.Checkpoint[State]{}, errors.New("disk error")
}

func (brokenSaver) List(ctx context.Context, cfg *memory.RunnableConfig, limit int) ([]memory.Checkpoint[State], error) {
	return nil, errors.New("disk error")
}

func TestRunnerInvoke(t *testing.T) {
	t.Run("direct answer without tools", func(t *testing.T) {
		runner, err := NewRunner(model.NewMockClient("Hi back."), tool.GetTimeExample())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}

		final, err := runner.Invoke(context.Background(), "hi")
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if final.Messages[0].Role != model.RoleSystem || final.Messages[0].Content != SystemPrompt {
			t.Error("first message should be the system prompt")
		}
		if final.LastMessage().Content != "Hi back." {
			t.Errorf("last message = %+v", final.LastMessage())
		}
	})

	t.Run("empty user message still runs", func(t *testing.T) {
		runner, err := NewRunner(model.NewMockClient("ok"), tool.GetTimeExample())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}
		final, err := runner.Invoke(context.Background(), "")
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if len(final.Messages) < 2 {
			t.Errorf("messages = %+v", final.Messages)
		}
	})

	t.Run("one tool round merges result into messages", func(t *testing.T) {
		llm := model.NewMockClientWithToolCall(
			model.ToolCall{ID: "tc1", Name: "get_time", Arguments: "{}"},
			"It is noon.",
		)
		runner, err := NewRunner(llm, tool.GetTimeExample())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}

		final, err := runner.Invoke(context.Background(), "What time is it?")
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}

		var sawResult bool
		for _, msg := range final.Messages {
			if msg.Role == model.RoleUser && strings.Contains(msg.Content, "Tool") && strings.Contains(msg.Content, "2025") {
				sawResult = true
			}
		}
		if !sawResult {
			t.Error("expected a user message carrying the tool result")
		}
		if len(final.ToolCalls) != 0 || len(final.ToolResults) != 0 {
			t.Error("tool calls and results should be cleared")
		}
		if final.TurnCount != 1 {
			t.Errorf("turn count = %d, want 1", final.TurnCount)
		}
		if final.LastMessage().Content != "It is noon." {
			t.Errorf("last message = %+v", final.LastMessage())
		}
	})

	t.Run("checkpoint loads history and appends new turn", func(t *testing.T) {
		saver := memory.NewMemorySaver[State]()
		cfg := &memory.RunnableConfig{ThreadID: "t1"}
		history := State{Messages: []model.Message{
			model.SystemMessage(SystemPrompt),
			model.UserMessage("first"),
			model.AssistantMessage("Reply to first"),
		}}
		if err := saver.Put(context.Background(), cfg, memory.NewCheckpoint(history, memory.SourceUpdate, 0)); err != nil {
			t.Fatalf("put: %v", err)
		}

		runner, err := NewRunner(model.NewMockClient("Reply to second"), tool.GetTimeExample(),
			WithCheckpointer(saver), WithConfig(cfg))
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}

		final, err := runner.Invoke(context.Background(), "second")
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}

		var contents []string
		for _, msg := range final.Messages {
			contents = append(contents, msg.Content)
		}
		joined := strings.Join(contents, "\n")
		for _, want := range []string{"first", "Reply to first", "second", "Reply to second"} {
			if !strings.Contains(joined, want) {
				t.Errorf("messages missing %q", want)
			}
		}

		// The run's final state lands in the thread's checkpoint history.
		tuple, err := saver.GetTuple(context.Background(), cfg)
		if err != nil {
			t.Fatalf("get checkpoint: %v", err)
		}
		if tuple.ChannelValues.LastMessage().Content != "Reply to second" {
			t.Errorf("checkpoint last message = %+v", tuple.ChannelValues.LastMessage())
		}
	})

	t.Run("verbose logs node lines", func(t *testing.T) {
		var buf bytes.Buffer
		runner, err := NewRunner(model.NewMockClient("ok"), tool.GetTimeExample(), WithVerbose(&buf))
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}
		if _, err := runner.Invoke(context.Background(), "hi"); err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if !strings.Contains(buf.String(), "node_enter node=think") {
			t.Errorf("log output = %q", buf.String())
		}
	})

	t.Run("without loop stops after one round", func(t *testing.T) {
		llm := model.NewMockClientWithToolCall(
			model.ToolCall{ID: "tc1", Name: "get_time", Arguments: "{}"},
			"unused",
		)
		runner, err := NewRunner(llm, tool.GetTimeExample(), WithoutLoop())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}

		final, err := runner.Invoke(context.Background(), "What time is it?")
		if err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if llm.CallCount() != 1 {
			t.Errorf("model called %d times, want 1", llm.CallCount())
		}
		if final.TurnCount != 1 {
			t.Errorf("turn count = %d, want 1", final.TurnCount)
		}
	})
}

func TestRunnerStream(t *testing.T) {
	t.Run("final state from last values event", func(t *testing.T) {
		runner, err := NewRunner(model.NewMockClient("Hi back."), tool.GetTimeExample())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}

		var tokens []string
		var updates []string
		final, err := runner.Stream(context.Background(), "hi", func(ev stream.Event[State]) {
			switch ev.Type {
			case stream.EventMessages:
				tokens = append(tokens, ev.Chunk.Content)
			case stream.EventUpdates:
				updates = append(updates, ev.NodeID)
			}
		})
		if err != nil {
			t.Fatalf("stream: %v", err)
		}

		if final.LastMessage().Content != "Hi back." {
			t.Errorf("final last message = %+v", final.LastMessage())
		}
		if got := strings.Join(tokens, ""); got != "Hi back." {
			t.Errorf("streamed tokens = %q", got)
		}
		if len(updates) == 0 || updates[0] != "think" {
			t.Errorf("updates = %v", updates)
		}
	})

	t.Run("nil callback is fine", func(t *testing.T) {
		runner, err := NewRunner(model.NewMockClient("ok"), tool.GetTimeExample())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}
		if _, err := runner.Stream(context.Background(), "hi", nil); err != nil {
			t.Fatalf("stream: %v", err)
		}
	})

	t.Run("failed run reports no final state", func(t *testing.T) {
		llm := model.NewMockClient("")
		llm.Err = errors.New("llm down")
		runner, err := NewRunner(llm, tool.GetTimeExample())
		if err != nil {
			t.Fatalf("new runner: %v", err)
		}

		_, err = runner.Stream(context.Background(), "hi", nil)
		if !errors.Is(err, ErrStreamEndedWithoutState) {
			t.Errorf("expected ErrStreamEndedWithoutState, got %v", err)
		}
	})
}
