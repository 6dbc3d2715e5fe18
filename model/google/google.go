// Package google adapts Google's Gemini models to the model.Client interface.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dshills/agentgraph/model"
	"github.com/dshills/agentgraph/tool"
)

// DefaultModel is used when no model name is given.
const DefaultModel = "gemini-1.5-flash"

// Client talks to Google's Gemini API.
//
// Gemini carries the system prompt as a model-level instruction and has no
// tool-call IDs, so tool calls are identified by function name. Close the
// client when done to release the underlying connection.
type Client struct {
	client    *genai.Client
	modelName string
	tools     []*genai.Tool
}

// Option configures a Client.
type Option func(*Client)

// WithTools advertises the given tool specs on every request.
func WithTools(specs []tool.Spec) Option {
	return func(c *Client) {
		c.tools = convertTools(specs)
	}
}

// NewClient creates a Gemini-backed chat client. An empty modelName falls
// back to DefaultModel.
func NewClient(ctx context.Context, apiKey, modelName string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("google: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	sdk, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}
	c := &Client{
		client:    sdk,
		modelName: modelName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying client connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Invoke sends the conversation and returns the model's next turn
// (implements model.Client).
func (c *Client) Invoke(ctx context.Context, messages []model.Message) (model.Response, error) {
	if err := ctx.Err(); err != nil {
		return model.Response{}, err
	}

	gm, parts := c.prepare(messages)
	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return model.Response{}, err
	}
	return convertResponse(resp), nil
}

// InvokeStream streams the response, calling onToken per text fragment, and
// returns the accumulated turn (implements model.StreamingClient).
func (c *Client) InvokeStream(ctx context.Context, messages []model.Message, onToken func(token string)) (model.Response, error) {
	if err := ctx.Err(); err != nil {
		return model.Response{}, err
	}

	gm, parts := c.prepare(messages)
	iter := gm.GenerateContentStream(ctx, parts...)

	var out model.Response
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return model.Response{}, err
		}
		chunk := convertResponse(resp)
		if chunk.Content != "" && onToken != nil {
			onToken(chunk.Content)
		}
		out.Content += chunk.Content
		out.ToolCalls = append(out.ToolCalls, chunk.ToolCalls...)
	}
	return out, nil
}

// prepare builds the generative model and the request parts. System messages
// become the model's system instruction; the rest flatten into text parts.
func (c *Client) prepare(messages []model.Message) (*genai.GenerativeModel, []genai.Part) {
	gm := c.client.GenerativeModel(c.modelName)
	if len(c.tools) > 0 {
		gm.Tools = c.tools
	}

	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == model.RoleSystem {
			gm.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	return gm, parts
}

func convertTools(specs []tool.Spec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, len(specs))
	for i, spec := range specs {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  convertSchema(spec.InputSchema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertSchema maps a JSON Schema object onto genai.Schema. Only the
// object/properties/required shape the tool specs use is covered.
func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	result := &genai.Schema{Type: genai.TypeObject}

	if props, ok := schema["properties"].(map[string]any); ok {
		properties := make(map[string]*genai.Schema, len(props))
		for key, val := range props {
			propMap, ok := val.(map[string]any)
			if !ok {
				continue
			}
			prop := &genai.Schema{}
			if typeStr, ok := propMap["type"].(string); ok {
				prop.Type = convertType(typeStr)
			}
			if desc, ok := propMap["description"].(string); ok {
				prop.Description = desc
			}
			properties[key] = prop
		}
		result.Properties = properties
	}

	switch required := schema["required"].(type) {
	case []string:
		result.Required = required
	case []any:
		for _, v := range required {
			if s, ok := v.(string); ok {
				result.Required = append(result.Required, s)
			}
		}
	}

	return result
}

func convertType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func convertResponse(resp *genai.GenerateContentResponse) model.Response {
	var out model.Response
	if resp == nil || len(resp.Candidates) == 0 {
		return out
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return out
	}

	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Content += string(p)
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:        p.Name,
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	return out
}
