// Package anthropic adapts Anthropic's Claude models to the model.Client
// interface.
package anthropic

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/agentgraph/model"
	"github.com/dshills/agentgraph/tool"
)

const (
	// DefaultModel is used when no model name is given.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds the response length when not overridden.
	DefaultMaxTokens = 4096
)

// Client talks to Anthropic's Messages API.
//
// Claude carries the system prompt outside the message list, so system-role
// messages are lifted into the request's System field. Tool specs given at
// construction are advertised on every request.
type Client struct {
	client    *anthropic.Client
	modelName string
	maxTokens int64
	tools     []anthropic.ToolUnionParam
}

// Option configures a Client.
type Option func(*Client)

// WithTools advertises the given tool specs on every request.
func WithTools(specs []tool.Spec) Option {
	return func(c *Client) {
		c.tools = convertTools(specs)
	}
}

// WithMaxTokens overrides the response token bound.
func WithMaxTokens(n int64) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// NewClient creates a Claude-backed chat client. An empty modelName falls
// back to DefaultModel.
func NewClient(apiKey, modelName string, opts ...Option) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client:    &sdk,
		modelName: modelName,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke sends the conversation and returns the model's next turn
// (implements model.Client).
func (c *Client) Invoke(ctx context.Context, messages []model.Message) (model.Response, error) {
	if err := ctx.Err(); err != nil {
		return model.Response{}, err
	}

	message, err := c.client.Messages.New(ctx, c.params(messages))
	if err != nil {
		return model.Response{}, err
	}
	return convertContent(message.Content), nil
}

// InvokeStream streams the response, calling onToken per text delta, and
// returns the accumulated turn (implements model.StreamingClient).
func (c *Client) InvokeStream(ctx context.Context, messages []model.Message, onToken func(token string)) (model.Response, error) {
	if err := ctx.Err(); err != nil {
		return model.Response{}, err
	}

	stream := c.client.Messages.NewStreaming(ctx, c.params(messages))
	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return model.Response{}, err
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text != "" && onToken != nil {
					onToken(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return model.Response{}, err
	}
	return convertContent(message.Content), nil
}

func (c *Client) params(messages []model.Message) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var converted []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: c.maxTokens,
		Messages:  converted,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(c.tools) > 0 {
		params.Tools = c.tools
	}
	return params
}

func convertTools(specs []tool.Spec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var schema anthropic.ToolInputSchemaParam
		if props, ok := spec.InputSchema["properties"]; ok {
			schema.Properties = props
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func convertContent(blocks []anthropic.ContentBlockUnion) model.Response {
	var resp model.Response
	for _, block := range blocks {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += b.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(json.RawMessage(b.Input)),
			})
		}
	}
	return resp
}
