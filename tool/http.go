package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSource calls tools hosted behind a JSON-over-HTTP endpoint.
//
// The remote contract is two routes under the base URL:
//
//	GET  {base}/tools           -> [{"name","description","input_schema"}, ...]
//	POST {base}/call            <- {"tool": name, "arguments": {...}}
//	                            -> {"text": "..."} or {"error": "..."}
//
// This lets an agent use tools running in another process or language
// without linking them in.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource for the given base URL.
// A nil client gets a default with a 30 second timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, client: client}
}

// ListTools fetches the remote tool catalog (implements Source).
func (h *HTTPSource) ListTools(ctx context.Context) ([]Spec, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/tools", nil)
	if err != nil {
		return nil, &SourceError{Message: "failed to build request", Err: err}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &SourceError{Message: "tool catalog request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Message: fmt.Sprintf("tool catalog returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &SourceError{Message: "failed to read catalog response", Err: err}
	}

	var specs []Spec
	if err := json.Unmarshal(body, &specs); err != nil {
		return nil, &SourceError{Message: "invalid catalog response", Err: err}
	}
	return specs, nil
}

// CallTool invokes a remote tool (implements Source).
func (h *HTTPSource) CallTool(ctx context.Context, name string, args map[string]any) (Content, error) {
	payload, err := json.Marshal(map[string]any{
		"tool":      name,
		"arguments": args,
	})
	if err != nil {
		return Content{}, &SourceError{Tool: name, Message: "failed to encode arguments", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/call", bytes.NewReader(payload))
	if err != nil {
		return Content{}, &SourceError{Tool: name, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Content{}, &SourceError{Tool: name, Message: "tool call request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Content{}, &SourceError{Tool: name, Message: "failed to read response", Err: err}
	}

	var result struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return Content{}, &SourceError{Tool: name, Message: "invalid tool response", Err: err}
	}
	if resp.StatusCode != http.StatusOK || result.Error != "" {
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("tool endpoint returned status %d", resp.StatusCode)
		}
		return Content{}, &SourceError{Tool: name, Message: msg}
	}

	return TextContent(result.Text), nil
}
