// Package openaicompat implements the provider contract against any
// OpenAI-compatible Chat Completions backend (OpenAI, vLLM, LiteLLM,
// Ollama in compatibility mode).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freitext-dev/freitext/pkg/provider"
)

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 120 * time.Second

// Client calls an OpenAI-compatible Chat Completions backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	name       string
}

// NewClient creates a Client. A zero timeout means DefaultTimeout.
func NewClient(name, baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if name == "" {
		name = "openai-compatible"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		name:       name,
	}
}

func (c *Client) Name() string { return c.name }

// Complete performs one non-streaming completion.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	chatReq := chatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend connection error: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("parsing backend response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("backend returned no choices")
	}

	choice := chatResp.Choices[0]
	return &provider.Response{
		Content:      choice.Message.Content,
		Model:        chatResp.Model,
		FinishReason: choice.FinishReason,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
