// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the freitext pipeline.
package observability

import "github.com/prometheus/client_golang/prometheus"

// ToolBuckets defines histogram buckets suited for remote tool and LLM
// call latencies, ranging from 10ms to 120s.
var ToolBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts HTTP requests by method, path, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "freitext_request_duration_seconds",
			Help:    "Request duration",
			Buckets: ToolBuckets,
		},
		[]string{"method", "path"},
	)

	// PipelineRunsTotal counts orchestrations by terminal outcome
	// (no_calls, all_failed, direct_return, secondary_pass, error).
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_pipeline_runs_total",
			Help: "Pipeline orchestrations by outcome",
		},
		[]string{"outcome"},
	)

	// DetectionCandidatesTotal counts raw candidates by strategy.
	DetectionCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_detection_candidates_total",
			Help: "Raw tool-call candidates by strategy",
		},
		[]string{"strategy"},
	)

	// CandidatesDroppedTotal counts candidates dropped before execution
	// (duplicate, unknown_tool, disabled_tool, invalid_params).
	CandidatesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_candidates_dropped_total",
			Help: "Candidates dropped during dedup/validation",
		},
		[]string{"reason"},
	)

	// GateRejectionsTotal counts intent-gate rejections by rule.
	GateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_gate_rejections_total",
			Help: "Intent gate rejections",
		},
		[]string{"rule"},
	)

	// ToolExecutionsTotal counts tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	)

	// ToolInvocationLatency records remote tool invocation latency.
	ToolInvocationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "freitext_tool_invocation_seconds",
			Help:    "Remote tool invocation latency",
			Buckets: ToolBuckets,
		},
		[]string{"tool_name"},
	)

	// SecondaryPassTotal counts summarization calls by status.
	SecondaryPassTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_secondary_pass_total",
			Help: "Secondary model passes",
		},
		[]string{"status"},
	)

	// FormatterRendersTotal counts renders by formatter and status.
	FormatterRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_formatter_renders_total",
			Help: "Formatter renders",
		},
		[]string{"formatter", "status"},
	)

	// RegistryRefreshesTotal counts registry snapshot refreshes.
	RegistryRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freitext_registry_refreshes_total",
			Help: "Tool registry snapshot refreshes",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		PipelineRunsTotal,
		DetectionCandidatesTotal,
		CandidatesDroppedTotal,
		GateRejectionsTotal,
		ToolExecutionsTotal,
		ToolInvocationLatency,
		SecondaryPassTotal,
		FormatterRendersTotal,
		RegistryRefreshesTotal,
	)
}
