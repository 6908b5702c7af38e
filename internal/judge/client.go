// Package judge provides the language-model trade judge: an Anthropic
// Messages API client, a bounded tool-use loop, and structured decision
// parsing. Judge failures are always recoverable — callers fall back to the
// deterministic evaluator.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	defaultAPIURL = "https://api.anthropic.com/v1/messages"
	apiVersion    = "2023-06-01"
	defaultModel  = "claude-3-5-sonnet-20241022"
)

// Client wraps the Anthropic Messages API.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates a Messages API client. Returns nil if apiKey is empty
// (judge disabled — agents run on the deterministic evaluator alone).
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		apiURL: defaultAPIURL,
		model:  defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxPerMin: 20,
	}
}

// NewClientForURL creates a client against a non-default endpoint. Used by
// tests to point the judge at a stub server.
func NewClientForURL(apiKey, apiURL string) *Client {
	c := NewClient(apiKey)
	if c != nil && apiURL != "" {
		c.apiURL = apiURL
	}
	return c
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// contentBlock is one element of a message's content. Exactly one of the
// type-specific field groups is populated, keyed by Type.
type contentBlock struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "tool_use"
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// message is a chat turn.
type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// toolDef is a tool declaration in the request.
type toolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// request is the Messages API request body.
type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Tools       []toolDef `json:"tools,omitempty"`
}

// response is the Messages API response body.
type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// complete sends one Messages API request and returns the parsed response.
func (c *Client) complete(ctx context.Context, req request) (*response, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("judge client not configured")
	}

	// Rate limiting.
	c.mu.Lock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		c.mu.Unlock()
		return nil, fmt.Errorf("rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	c.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	slog.Debug("judge call",
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
		"stop_reason", apiResp.StopReason,
	)
	return &apiResp, nil
}
