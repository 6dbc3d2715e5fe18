package react

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/dshills/agentgraph/graph"
	"github.com/dshills/agentgraph/graph/stream"
	"github.com/dshills/agentgraph/tool"
)

// DefaultToolErrorTemplate is the error message used when a caught tool
// error has no tool-specific detail.
const DefaultToolErrorTemplate = "Error: {error}\n Please fix your mistakes."

// DefaultExecutionErrorTemplate is the error message used by HandleAlways
// when no custom template is given.
const DefaultExecutionErrorTemplate = "Error executing tool '{tool_name}' with kwargs {tool_kwargs} with error:\n {error}\n Please fix the error and try again."

// ErrorHandlerFunc renders a caught tool error into the result text the
// model sees.
type ErrorHandlerFunc func(err error, toolName string, args map[string]any) string

type errorMode int

const (
	errorModeNever errorMode = iota
	errorModeAlways
	errorModeCustom
)

// ErrorPolicy decides what happens when a tool call fails.
//
// The zero value propagates errors, which short-circuits the run.
type ErrorPolicy struct {
	mode     errorMode
	template string
	handler  ErrorHandlerFunc
}

// HandleNever propagates tool errors (the default).
func HandleNever() ErrorPolicy {
	return ErrorPolicy{mode: errorModeNever}
}

// HandleAlways catches tool errors and records them as tool results. An
// empty template uses DefaultExecutionErrorTemplate; a non-empty template is
// used verbatim.
func HandleAlways(template string) ErrorPolicy {
	return ErrorPolicy{mode: errorModeAlways, template: template}
}

// HandleCustom catches tool errors and renders them with fn.
func HandleCustom(fn ErrorHandlerFunc) ErrorPolicy {
	return ErrorPolicy{mode: errorModeCustom, handler: fn}
}

// handle returns the result text for a caught error, or false when the error
// should propagate.
func (p ErrorPolicy) handle(err error, toolName string, args map[string]any) (string, bool) {
	switch p.mode {
	case errorModeAlways:
		if p.template != "" {
			return p.template, true
		}
		kwargs, merr := json.Marshal(args)
		if merr != nil {
			kwargs = []byte("{}")
		}
		msg := strings.ReplaceAll(DefaultExecutionErrorTemplate, "{tool_name}", toolName)
		msg = strings.ReplaceAll(msg, "{tool_kwargs}", string(kwargs))
		msg = strings.ReplaceAll(msg, "{error}", err.Error())
		return msg, true
	case errorModeCustom:
		return p.handler(err, toolName, args), true
	default:
		return "", false
	}
}

// ActNode executes the state's pending tool calls.
//
// Each call's arguments are parsed leniently: an empty string becomes an
// empty object, and malformed JSON goes through a repair pass before falling
// back to an empty object. The recent conversation is published to the tool
// source as call context for the duration of the round, so tools that read
// short-term memory see the current messages.
type ActNode struct {
	tools  tool.Source
	policy ErrorPolicy
}

// NewActNode creates an Act node over the given tool source. Tool errors
// propagate unless WithErrorPolicy changes that.
func NewActNode(tools tool.Source) *ActNode {
	return &ActNode{tools: tools}
}

// WithErrorPolicy sets the tool error policy and returns the node.
func (n *ActNode) WithErrorPolicy(p ErrorPolicy) *ActNode {
	n.policy = p
	return n
}

// Run executes the pending tool calls (implements graph.Node).
func (n *ActNode) Run(ctx context.Context, s State) (State, graph.Next, error) {
	return n.execute(ctx, s, nil)
}

// RunWithContext executes the pending tool calls, handing tools a stream
// writer when the run requested Custom events (implements graph.ContextNode).
func (n *ActNode) RunWithContext(ctx context.Context, s State, rc *graph.RunContext[State]) (State, graph.Next, error) {
	var writer tool.StreamWriter
	if rc.HasMode(stream.ModeCustom) {
		writer = tool.StreamWriterFunc(func(payload json.RawMessage) bool {
			return rc.EmitCustom(payload)
		})
	}
	return n.execute(ctx, s, writer)
}

func (n *ActNode) execute(ctx context.Context, s State, writer tool.StreamWriter) (State, graph.Next, error) {
	callCtx := tool.NewCallContext(s.Messages)
	if writer != nil {
		callCtx.WithWriter(writer)
	}

	setter, hasSetter := n.tools.(tool.ContextSetter)
	if hasSetter {
		setter.SetCallContext(callCtx)
		defer setter.SetCallContext(nil)
	}

	results := make([]ToolResult, 0, len(s.ToolCalls))
	for _, tc := range s.ToolCalls {
		args := parseArgs(tc.Arguments)

		content, err := n.callTool(ctx, tc.Name, args, callCtx)
		if err != nil {
			msg, handled := n.policy.handle(err, tc.Name, args)
			if !handled {
				return s, graph.Next{}, err
			}
			results = append(results, ToolResult{CallID: tc.ID, Name: tc.Name, Content: msg})
			continue
		}
		results = append(results, ToolResult{CallID: tc.ID, Name: tc.Name, Content: content.Text})
	}

	s.ToolResults = results
	return s, graph.Continue(), nil
}

func (n *ActNode) callTool(ctx context.Context, name string, args map[string]any, callCtx *tool.CallContext) (tool.Content, error) {
	if cs, ok := n.tools.(tool.ContextualSource); ok {
		return cs.CallToolWithContext(ctx, name, args, callCtx)
	}
	return n.tools.CallTool(ctx, name, args)
}

// parseArgs turns the model's argument string into a map. Empty input means
// no arguments; malformed JSON gets a repair pass before giving up.
func parseArgs(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return map[string]any{}
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return map[string]any{}
	}
	return args
}
