package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/freitext-dev/freitext/pkg/api"
)

// maxResponseBytes caps how much of a tool service response is read.
const maxResponseBytes = 10 << 20

// HTTPInvoker calls plain HTTP tool services. The invocation is a JSON
// POST of the call parameters to {endpoint}/{tool}.
type HTTPInvoker struct {
	client *http.Client
	signer *ServiceTokenSigner
}

// NewHTTPInvoker creates an HTTPInvoker. The client may be nil, in
// which case http.DefaultClient is used; per-call deadlines come from
// the invocation context. The signer may be nil to send unauthenticated
// requests.
func NewHTTPInvoker(client *http.Client, signer *ServiceTokenSigner) *HTTPInvoker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPInvoker{client: client, signer: signer}
}

// CanInvoke accepts http and https endpoints. MCP endpoints use the
// mcp+http scheme and are handled elsewhere.
func (h *HTTPInvoker) CanInvoke(def api.ToolDefinition) bool {
	return strings.HasPrefix(def.ServiceEndpoint, "http://") ||
		strings.HasPrefix(def.ServiceEndpoint, "https://")
}

// Invoke posts the call parameters and returns the service payload.
// Services may respond with a bare JSON document or with an envelope
// carrying success/data/error fields; both are handled.
func (h *HTTPInvoker) Invoke(ctx context.Context, def api.ToolDefinition, call api.ValidatedToolCall) (json.RawMessage, error) {
	body, err := json.Marshal(call.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}

	url := strings.TrimSuffix(def.ServiceEndpoint, "/") + "/" + call.BaseName()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if h.signer != nil {
		token, err := h.signer.Sign(def.ServiceID, call.BaseName())
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", def.ServiceName, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", def.ServiceName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned HTTP %d: %s", def.ServiceName, resp.StatusCode, errorSnippet(payload))
	}

	return unwrapEnvelope(payload)
}

// unwrapEnvelope extracts the data payload from a
// {"success": ..., "data": ..., "error": ...} envelope. Documents
// without a success field pass through unchanged.
func unwrapEnvelope(payload []byte) (json.RawMessage, error) {
	success := gjson.GetBytes(payload, "success")
	if !success.Exists() {
		return json.RawMessage(payload), nil
	}

	if !success.Bool() {
		msg := gjson.GetBytes(payload, "error").String()
		if msg == "" {
			msg = "tool reported failure without detail"
		}
		return nil, fmt.Errorf("%s", msg)
	}

	if data := gjson.GetBytes(payload, "data"); data.Exists() {
		return json.RawMessage(data.Raw), nil
	}
	return json.RawMessage(payload), nil
}

// errorSnippet pulls a human-readable message out of an error response
// body, falling back to a truncated raw body.
func errorSnippet(payload []byte) string {
	for _, key := range []string{"error", "message", "detail"} {
		if v := gjson.GetBytes(payload, key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	s := strings.TrimSpace(string(payload))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
