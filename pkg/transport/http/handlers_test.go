package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/auth"
	"github.com/freitext-dev/freitext/pkg/detect"
	"github.com/freitext-dev/freitext/pkg/engine"
	"github.com/freitext-dev/freitext/pkg/executor"
	"github.com/freitext-dev/freitext/pkg/format"
	"github.com/freitext-dev/freitext/pkg/registry"
	"github.com/freitext-dev/freitext/pkg/registry/memory"
)

// echoInvoker returns the call parameters as the payload.
type echoInvoker struct{}

func (echoInvoker) CanInvoke(def api.ToolDefinition) bool { return true }

func (echoInvoker) Invoke(ctx context.Context, def api.ToolDefinition, call api.ValidatedToolCall) (json.RawMessage, error) {
	return json.Marshal(call.Parameters)
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	reg := registry.New(memory.New([]api.ToolDefinition{{
		ID:              "t1",
		Name:            "lookup_record",
		ServiceID:       "svc",
		ServiceEndpoint: "http://tools.local",
		Enabled:         true,
	}}), time.Minute)
	exec := executor.New([]executor.Invoker{echoInvoker{}}, reg, executor.Config{})
	factory := format.NewFactory(nil)
	o := engine.New(detect.New(nil, nil), reg, exec, factory, nil, engine.DefaultConfig())
	return NewHandler(o, factory)
}

func TestHandleProcess(t *testing.T) {
	handler := newTestHandler(t).Routes(false)

	body := `{
		"reply": "` + "```" + `json\n{\"tool\":\"lookup_record\",\"parameters\":{\"id\":\"A1\"}}\n` + "```" + `",
		"context": {"user_question": "look up record A1"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result api.OrchestrationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !result.HasToolCalls {
		t.Errorf("expected tool calls, got %+v", result)
	}
	if len(result.ToolResults) != 1 || !result.ToolResults[0].Success {
		t.Errorf("results = %+v", result.ToolResults)
	}
}

func TestHandleProcess_BadRequests(t *testing.T) {
	handler := newTestHandler(t).Routes(false)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{not json"},
		{"missing reply", `{"context": {"user_question": "q"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleFormat(t *testing.T) {
	handler := newTestHandler(t).Routes(false)

	body := `{"tool_name": "lookup_record", "data": {"records": [{"name": "Acme"}]}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/format", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp FormatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Formatted, "Acme") {
		t.Errorf("formatted = %q", resp.Formatted)
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(t).Routes(false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	handler := newTestHandler(t).Routes(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// Disabled metrics route 404s.
	handler = newTestHandler(t).Routes(false)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	authn := auth.NewAPIKey([]auth.Key{{Name: "ci", Key: "sk-test"}})
	handler := Chain(newTestHandler(t).Routes(false),
		Recovery(),
		RequestID(),
		authn.Middleware,
	)

	// Without a key.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header missing")
	}

	// With a key.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer sk-test")
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("request ID = %q, want echoed fixed-id", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recovery())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
