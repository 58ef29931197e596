// Package http exposes the pipeline over a small JSON API:
// POST /v1/process runs the full orchestration for one model reply,
// POST /v1/format renders a payload ad hoc, plus health and metrics
// endpoints.
package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/engine"
	"github.com/freitext-dev/freitext/pkg/format"
	"github.com/freitext-dev/freitext/pkg/observability"
)

// maxBodySize caps inbound request bodies.
const maxBodySize = 10 << 20

// Handler serves the pipeline API.
type Handler struct {
	orchestrator *engine.Orchestrator
	factory      *format.Factory
}

// NewHandler creates a Handler over the orchestrator and formatter.
func NewHandler(o *engine.Orchestrator, f *format.Factory) *Handler {
	return &Handler{orchestrator: o, factory: f}
}

// Routes returns the API mux with per-route metrics. Auth and other
// outer middleware are applied by the caller.
func (h *Handler) Routes(metricsEnabled bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/process", h.handleProcess)
	mux.HandleFunc("POST /v1/format", h.handleFormat)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if metricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	return observability.MetricsMiddleware(mux)
}

// ProcessRequest is the body of POST /v1/process.
type ProcessRequest struct {
	// Reply is the model output to scan for tool calls.
	Reply string `json:"reply"`

	// Context carries the user question and attachment metadata the
	// intent gate needs.
	Context api.RequestContext `json:"context"`
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reply == "" {
		writeError(w, http.StatusBadRequest, "reply must not be empty")
		return
	}

	result := h.orchestrator.ProcessReply(r.Context(), req.Reply, req.Context)
	writeJSON(w, http.StatusOK, result)
}

// FormatRequest is the body of POST /v1/format.
type FormatRequest struct {
	ToolName string          `json:"tool_name"`
	Data     json.RawMessage `json:"data"`
}

// FormatResponse carries the rendered report.
type FormatResponse struct {
	Formatted string `json:"formatted"`
}

func (h *Handler) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ToolName == "" {
		writeError(w, http.StatusBadRequest, "tool_name must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, FormatResponse{
		Formatted: h.factory.FormatToolResult(req.Data, req.ToolName),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			writeError(w, http.StatusBadRequest, "request body is empty")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
