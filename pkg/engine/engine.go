// Package engine sequences the pipeline for one model reply: strip
// reasoning, detect tool calls, execute them, format the results, and
// decide whether a constrained secondary model pass is worth its cost.
//
// The central rule is anti-fabrication: once tool calls were detected,
// the model's original text is never used as the answer. If every tool
// failed, the user gets an explicit failure report instead.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/detect"
	"github.com/freitext-dev/freitext/pkg/executor"
	"github.com/freitext-dev/freitext/pkg/format"
	"github.com/freitext-dev/freitext/pkg/observability"
	"github.com/freitext-dev/freitext/pkg/provider"
	"github.com/freitext-dev/freitext/pkg/registry"
)

// Config holds orchestrator settings.
type Config struct {
	// Model is the backend model used for the secondary pass.
	Model string

	// CompletenessMarkers must all appear in a formatted report for it
	// to skip the secondary pass. Empty means the renderer defaults.
	CompletenessMarkers []string

	// MinReportLength is the shortest report considered self-sufficient.
	MinReportLength int

	// MaxSummarySentences bounds the secondary-pass answer.
	MaxSummarySentences int

	// SummaryMaxTokens caps the secondary-pass completion.
	SummaryMaxTokens int

	// SummaryTimeout bounds the secondary-pass model call.
	SummaryTimeout time.Duration
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		CompletenessMarkers: defaultMarkers(),
		MinReportLength:     400,
		MaxSummarySentences: 4,
		SummaryMaxTokens:    400,
		SummaryTimeout:      30 * time.Second,
	}
}

// Orchestrator is the pipeline's top-level sequencer. Safe for
// concurrent use; each ProcessReply call is independent.
type Orchestrator struct {
	detector *detect.Detector
	registry *registry.Registry
	executor *executor.Executor
	factory  *format.Factory
	provider provider.Provider
	cfg      Config

	// Hooks forwards executor progress callbacks, for streaming UIs.
	Hooks executor.Hooks
}

// New creates an Orchestrator. The provider may be nil, which disables
// the secondary pass; short reports then return formatted as-is.
func New(detector *detect.Detector, reg *registry.Registry, exec *executor.Executor, factory *format.Factory, p provider.Provider, cfg Config) *Orchestrator {
	if len(cfg.CompletenessMarkers) == 0 {
		cfg.CompletenessMarkers = defaultMarkers()
	}
	if cfg.MinReportLength <= 0 {
		cfg.MinReportLength = 400
	}
	if cfg.MaxSummarySentences <= 0 {
		cfg.MaxSummarySentences = 4
	}
	if cfg.SummaryTimeout <= 0 {
		cfg.SummaryTimeout = 30 * time.Second
	}
	return &Orchestrator{
		detector: detector,
		registry: reg,
		executor: exec,
		factory:  factory,
		provider: p,
		cfg:      cfg,
	}
}

// ProcessReply runs the full pipeline over one model reply. It never
// panics and never returns an error value: everything below the outer
// boundary is recovered into the result, and only a truly unexpected
// failure sets result.Error.
func (o *Orchestrator) ProcessReply(ctx context.Context, reply string, reqCtx api.RequestContext) (result *api.OrchestrationResult) {
	clean, thinking := ExtractThinking(reply)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("pipeline panicked", "panic", rec, "conversation", reqCtx.ConversationID)
			observability.PipelineRunsTotal.WithLabelValues("error").Inc()
			// No tool ran to completion in a trustworthy way, so the
			// original text is the only safe default here.
			result = &api.OrchestrationResult{
				OriginalResponse: clean,
				FinalResponse:    clean,
				ThinkingContent:  thinking,
				Error:            api.NewPipelineError(fmt.Sprintf("unexpected pipeline failure: %v", rec)),
			}
		}
	}()

	result = &api.OrchestrationResult{
		OriginalResponse: clean,
		ThinkingContent:  thinking,
	}

	snap := o.snapshot(ctx)

	var source detect.ToolSource
	if snap != nil {
		source = snap
	}
	calls := o.detector.Detect(clean, reqCtx, source, detect.DefaultOptions())
	if len(calls) == 0 {
		result.FinalResponse = clean
		observability.PipelineRunsTotal.WithLabelValues("no_calls").Inc()
		return result
	}

	result.HasToolCalls = true
	result.ToolCalls = calls
	result.ToolResults = o.executor.Execute(ctx, calls, snap, o.Hooks)

	if ctx.Err() != nil {
		// Client went away. In-flight calls were allowed to finish for
		// side-effect consistency, but their results are not delivered.
		observability.PipelineRunsTotal.WithLabelValues("cancelled").Inc()
		result.ToolResults = nil
		result.Error = api.NewPipelineError("request cancelled during tool execution")
		return result
	}

	if !anySucceeded(result.ToolResults) {
		report := failureReport(result.ToolResults)
		result.FormattedResults = report
		result.FinalResponse = report
		observability.PipelineRunsTotal.WithLabelValues("all_failed").Inc()
		return result
	}

	report := o.buildReport(result.ToolResults)
	result.FormattedResults = report

	if o.reportComplete(report) || o.provider == nil {
		result.FinalResponse = report
		observability.PipelineRunsTotal.WithLabelValues("direct_return").Inc()
		return result
	}

	if ctx.Err() != nil {
		// No new model call after cancellation; the report stands.
		result.FinalResponse = report
		observability.PipelineRunsTotal.WithLabelValues("cancelled").Inc()
		return result
	}

	summary, err := o.summarize(ctx, reqCtx, result.ToolResults)
	if err != nil {
		result.FinalResponse = summaryFallback(report, err)
		observability.PipelineRunsTotal.WithLabelValues("secondary_fallback").Inc()
		return result
	}

	result.FinalResponse = summary
	result.UsedSecondaryPass = true
	observability.SecondaryPassTotal.WithLabelValues("success").Inc()
	observability.PipelineRunsTotal.WithLabelValues("secondary_pass").Inc()
	return result
}

// snapshot fetches the current tool snapshot. A registry failure is
// not fatal: detection then validates against nothing and candidates
// are dropped, which is the honest outcome when no tools are known.
func (o *Orchestrator) snapshot(ctx context.Context) *registry.Snapshot {
	if o.registry == nil {
		return nil
	}
	snap, err := o.registry.Snapshot(ctx)
	if err != nil {
		slog.Warn("tool registry unavailable, proceeding without tools", "error", err)
		return nil
	}
	return snap
}

func anySucceeded(results []api.ToolExecutionResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}
