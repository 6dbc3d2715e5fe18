// Package openai adapts OpenAI chat models to the model.Client interface.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/agentgraph/model"
	"github.com/dshills/agentgraph/tool"
)

// DefaultModel is used when no model name is given.
const DefaultModel = "gpt-4o"

// Client talks to OpenAI's chat completions API.
//
// The client is safe for concurrent use; the underlying SDK client handles
// its own transport. Tool specs given at construction are advertised on
// every request.
//
// Example usage:
//
//	c := openai.NewClient(os.Getenv("OPENAI_API_KEY"), "gpt-4o",
//	    openai.WithTools(specs))
//	resp, err := c.Invoke(ctx, messages)
type Client struct {
	client    *openai.Client
	modelName string
	tools     []openai.ChatCompletionToolParam
}

// Option configures a Client.
type Option func(*Client)

// WithTools advertises the given tool specs on every request.
func WithTools(specs []tool.Spec) Option {
	return func(c *Client) {
		c.tools = convertTools(specs)
	}
}

// NewClient creates an OpenAI-backed chat client. An empty modelName falls
// back to DefaultModel.
func NewClient(apiKey, modelName string, opts ...Option) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	sdk := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client:    &sdk,
		modelName: modelName,
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

	completion, err := c.client.Chat.Completions.New(ctx, c.params(messages))
	if err != nil {
		return model.Response{}, err
	}
	if len(completion.Choices) == 0 {
		return model.Response{}, errors.New("openai: empty response")
	}
	return convertMessage(completion.Choices[0].Message), nil
}

// InvokeStream streams the response, calling onToken per content fragment,
// and returns the accumulated turn (implements model.StreamingClient).
func (c *Client) InvokeStream(ctx context.Context, messages []model.Message, onToken func(token string)) (model.Response, error) {
	if err := ctx.Err(); err != nil {
		return model.Response{}, err
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(messages))
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" && onToken != nil {
				onToken(delta)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return model.Response{}, err
	}
	if len(acc.Choices) == 0 {
		return model.Response{}, errors.New("openai: empty response")
	}
	return convertMessage(acc.Choices[0].Message), nil
}

func (c *Client) params(messages []model.Message) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.modelName),
		Messages: convertMessages(messages),
	}
	if len(c.tools) > 0 {
		params.Tools = c.tools
	}
	return params
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func convertTools(specs []tool.Spec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  shared.FunctionParameters(spec.InputSchema),
			},
		})
	}
	return out
}

func convertMessage(msg openai.ChatCompletionMessage) model.Response {
	resp := model.Response{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return resp
}
