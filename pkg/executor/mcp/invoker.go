// Package mcp invokes tools hosted on MCP servers. Tool definitions
// whose service endpoint uses the mcp+http or mcp+https scheme are
// routed here; sessions are established lazily per endpoint and reused
// across invocations.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/freitext-dev/freitext/pkg/api"
)

// Invoker dispatches tool calls to MCP servers over streamable HTTP.
type Invoker struct {
	headers map[string]string

	mu       sync.Mutex
	sessions map[string]*mcp.ClientSession
}

// NewInvoker creates an Invoker. Headers, if any, are attached to every
// HTTP request of every session.
func NewInvoker(headers map[string]string) *Invoker {
	return &Invoker{
		headers:  headers,
		sessions: make(map[string]*mcp.ClientSession),
	}
}

// CanInvoke accepts mcp+http and mcp+https endpoints.
func (i *Invoker) CanInvoke(def api.ToolDefinition) bool {
	return strings.HasPrefix(def.ServiceEndpoint, "mcp+http://") ||
		strings.HasPrefix(def.ServiceEndpoint, "mcp+https://")
}

// Invoke calls the tool on its MCP server and returns the textual
// content of the result as a JSON string value, or the structured
// content when the server provides one.
func (i *Invoker) Invoke(ctx context.Context, def api.ToolDefinition, call api.ValidatedToolCall) (json.RawMessage, error) {
	session, err := i.session(ctx, def.ServiceEndpoint)
	if err != nil {
		return nil, err
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      call.BaseName(),
		Arguments: call.Parameters,
	})
	if err != nil {
		// The session may have gone stale; drop it so the next call
		// reconnects.
		i.dropSession(def.ServiceEndpoint, session)
		return nil, fmt.Errorf("MCP call to %q: %w", call.BaseName(), err)
	}

	return convertResult(result)
}

// session returns a live session for the endpoint, connecting if
// needed.
func (i *Invoker) session(ctx context.Context, endpoint string) (*mcp.ClientSession, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if s, ok := i.sessions[endpoint]; ok {
		return s, nil
	}

	client := mcp.NewClient(
		&mcp.Implementation{
			Name:    "freitext",
			Version: "1.0.0",
		},
		&mcp.ClientOptions{
			Capabilities: &mcp.ClientCapabilities{},
		},
	)

	transport := &mcp.StreamableClientTransport{
		Endpoint: strings.TrimPrefix(endpoint, "mcp+"),
	}
	if len(i.headers) > 0 {
		transport.HTTPClient = newHeaderClient(i.headers)
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP server %q: %w", endpoint, err)
	}
	i.sessions[endpoint] = session
	return session, nil
}

// dropSession removes a session from the pool if it is still the one
// registered for the endpoint.
func (i *Invoker) dropSession(endpoint string, session *mcp.ClientSession) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sessions[endpoint] == session {
		delete(i.sessions, endpoint)
		_ = session.Close()
	}
}

// Close closes all open sessions.
func (i *Invoker) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	var firstErr error
	for endpoint, session := range i.sessions {
		if err := session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing MCP session %q: %w", endpoint, err)
		}
		delete(i.sessions, endpoint)
	}
	return firstErr
}

// convertResult turns an MCP result into a JSON payload. Structured
// content takes precedence; otherwise the text contents are joined and
// returned as a JSON string.
func convertResult(result *mcp.CallToolResult) (json.RawMessage, error) {
	if result.IsError {
		var text strings.Builder
		for _, content := range result.Content {
			if tc, ok := content.(*mcp.TextContent); ok {
				if text.Len() > 0 {
					text.WriteByte('\n')
				}
				text.WriteString(tc.Text)
			}
		}
		msg := text.String()
		if msg == "" {
			msg = "MCP tool reported an error without detail"
		}
		return nil, fmt.Errorf("%s", msg)
	}

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("marshaling structured content: %w", err)
		}
		return data, nil
	}

	var text strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if text.Len() > 0 {
				text.WriteByte('\n')
			}
			text.WriteString(tc.Text)
		}
	}

	data, err := json.Marshal(text.String())
	if err != nil {
		return nil, fmt.Errorf("encoding text content: %w", err)
	}
	return data, nil
}
