package react

import (
	"context"
	"errors"
	"io"

	"github.com/dshills/agentgraph/graph"
	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/memory"
	"github.com/dshills/agentgraph/model"
	"github.com/dshills/agentgraph/tool"
)

// ErrStreamEndedWithoutState is returned by Runner.Stream when the event
// stream closes before any Values event arrived, which means the run failed
// before its first node completed.
var ErrStreamEndedWithoutState = errors.New("stream ended without final state")

// BuildInitialState builds the agent state for a run.
//
// With a checkpointer and a thread ID in cfg, the latest checkpoint for the
// thread is resumed: the new user message is appended and any stale tool
// calls and results are cleared. Without one, or when the thread has no
// checkpoint yet, a fresh conversation starts from systemPrompt (empty means
// SystemPrompt) and the user message.
func BuildInitialState(ctx context.Context, userMessage string, cp memory.Checkpointer[State], cfg *memory.RunnableConfig, systemPrompt string) (State, error) {
	if cp != nil && cfg != nil && cfg.ThreadID != "" {
		tuple, err := cp.GetTuple(ctx, cfg)
		switch {
		case err == nil:
			state := tuple.ChannelValues
			state.Messages = append(state.Messages, model.UserMessage(userMessage))
			state.ToolCalls = nil
			state.ToolResults = nil
			return state, nil
		case !errors.Is(err, memory.ErrNotFound):
			return State{}, err
		}
	}

	prompt := systemPrompt
	if prompt == "" {
		prompt = SystemPrompt
	}
	return State{
		Messages: []model.Message{
			model.SystemMessage(prompt),
			model.UserMessage(userMessage),
		},
	}, nil
}

// Runner wires the standard think, act, observe chain and runs it.
//
// The chain loops: after tool results are observed, control returns to the
// think node until the model answers without tool calls. Persistence and
// verbosity are configured through options.
type Runner struct {
	compiled     *graph.CompiledStateGraph[State]
	checkpointer memory.Checkpointer[State]
	config       *memory.RunnableConfig
	systemPrompt string
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	checkpointer memory.Checkpointer[State]
	store        memory.Store
	config       *memory.RunnableConfig
	policy       ErrorPolicy
	systemPrompt string
	logWriter    io.Writer
	middleware   []graph.NodeMiddleware[State]
	noLoop       bool
}

// WithCheckpointer persists the final state per thread.
func WithCheckpointer(cp memory.Checkpointer[State]) RunnerOption {
	return func(c *runnerConfig) { c.checkpointer = cp }
}

// WithStore attaches a long-term store handle to the graph.
func WithStore(st memory.Store) RunnerOption {
	return func(c *runnerConfig) { c.store = st }
}

// WithConfig sets the run config (thread ID, checkpoint pinning).
func WithConfig(cfg *memory.RunnableConfig) RunnerOption {
	return func(c *runnerConfig) { c.config = cfg }
}

// WithErrorPolicy sets the act node's tool error policy.
func WithErrorPolicy(p ErrorPolicy) RunnerOption {
	return func(c *runnerConfig) { c.policy = p }
}

// WithSystemPrompt overrides the default system prompt for fresh
// conversations.
func WithSystemPrompt(prompt string) RunnerOption {
	return func(c *runnerConfig) { c.systemPrompt = prompt }
}

// WithVerbose logs node enter/exit lines to w.
func WithVerbose(w io.Writer) RunnerOption {
	return func(c *runnerConfig) { c.logWriter = w }
}

// WithMiddleware appends node middleware to the graph.
func WithMiddleware(mw ...graph.NodeMiddleware[State]) RunnerOption {
	return func(c *runnerConfig) { c.middleware = append(c.middleware, mw...) }
}

// WithoutLoop stops the agent after a single tool round instead of returning
// to the think node.
func WithoutLoop() RunnerOption {
	return func(c *runnerConfig) { c.noLoop = true }
}

// NewRunner builds and compiles the agent chain for the given model client
// and tool source.
func NewRunner(llm model.Client, tools tool.Source, opts ...RunnerOption) (*Runner, error) {
	var cfg runnerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	observe := WithLoop()
	if cfg.noLoop {
		observe = NewObserveNode()
	}

	g := graph.NewStateGraph[State]().
		AddNode("think", NewThinkNode(llm)).
		AddNode("act", NewActNode(tools).WithErrorPolicy(cfg.policy)).
		AddNode("observe", observe).
		AddEdge(graph.Start, "think").
		AddEdge("think", "act").
		AddEdge("act", "observe").
		AddEdge("observe", graph.End)

	if cfg.checkpointer != nil {
		g.WithCheckpointer(cfg.checkpointer)
	}
	if cfg.store != nil {
		g.WithStore(cfg.store)
	}
	if cfg.logWriter != nil {
		g.WithMiddleware(graph.NewLoggingMiddleware[State](cfg.logWriter))
	}
	if len(cfg.middleware) > 0 {
		g.WithMiddleware(cfg.middleware...)
	}

	compiled, err := g.Compile()
	if err != nil {
		return nil, err
	}

	return &Runner{
		compiled:     compiled,
		checkpointer: cfg.checkpointer,
		config:       cfg.config,
		systemPrompt: cfg.systemPrompt,
	}, nil
}

// Invoke runs the agent to completion for one user message and returns the
// final state.
func (r *Runner) Invoke(ctx context.Context, userMessage string) (State, error) {
	state, err := BuildInitialState(ctx, userMessage, r.checkpointer, r.config, r.systemPrompt)
	if err != nil {
		return State{}, err
	}
	return r.compiled.Invoke(ctx, state, r.config)
}

// Stream runs the agent in streaming mode. Every event is handed to onEvent
// (which may be nil), and the final state is recovered from the last Values
// event. A stream that closes without one returns
// ErrStreamEndedWithoutState.
func (r *Runner) Stream(ctx context.Context, userMessage string, onEvent func(stream.Event[State])) (State, error) {
	state, err := BuildInitialState(ctx, userMessage, r.checkpointer, r.config, r.systemPrompt)
	if err != nil {
		return State{}, err
	}

	events := r.compiled.Stream(ctx, state, r.config,
		stream.ModeValues, stream.ModeUpdates, stream.ModeMessages, stream.ModeCustom)

	var final *State
	for ev := range events {
		if onEvent != nil {
			onEvent(ev)
		}
		if ev.Type == stream.EventValues {
			s := ev.State
			final = &s
		}
	}
	if final == nil {
		return State{}, ErrStreamEndedWithoutState
	}
	return *final, nil
}
