package detect

import (
	"log/slog"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/observability"
)

// ToolSource resolves tool names against the live registry. The
// registry's snapshot type implements it; tests use small fakes.
type ToolSource interface {
	// Lookup returns the enabled tool definition for the given
	// lowercased base name, if any.
	Lookup(name string) (api.ToolDefinition, bool)
}

// Options controls a single detection run.
type Options struct {
	// EnabledStrategies restricts the run to the named strategies.
	// Empty means all registered strategies.
	EnabledStrategies []string

	// Validate cross-references candidates against the tool source.
	Validate bool

	// SkipGate bypasses the intent gate. Used by callers that already
	// know the text is tool-bearing.
	SkipGate bool
}

// DefaultOptions returns the options used by the orchestrator.
func DefaultOptions() Options {
	return Options{Validate: true}
}

// Detector runs detection strategies over normalized text, merges and
// deduplicates their candidates, and validates them against the tool
// registry. Detectors are immutable after construction and safe for
// concurrent use.
type Detector struct {
	strategies []Strategy
	gate       *IntentGate
}

// New creates a Detector with the given strategies and gate. A nil
// gate disables intent gating; nil strategies means the default set.
func New(strategies []Strategy, gate *IntentGate) *Detector {
	if strategies == nil {
		strategies = DefaultStrategies()
	}
	return &Detector{strategies: strategies, gate: gate}
}

// Detect extracts validated tool calls from a model reply.
//
// Empty text yields an empty result. Candidates are deduplicated by
// (name, canonical parameters) with first occurrence winning, then
// validated against the tool source when opts.Validate is set; unknown
// names are dropped and logged.
func (d *Detector) Detect(text string, reqCtx api.RequestContext, source ToolSource, opts Options) []api.ValidatedToolCall {
	if text == "" {
		return nil
	}

	normalized := NormalizeText(text)
	if normalized == "" {
		return nil
	}

	if d.gate != nil && !opts.SkipGate {
		if decision := d.gate.Check(normalized, reqCtx); !decision.Allow {
			observability.GateRejectionsTotal.WithLabelValues(decision.Reason).Inc()
			slog.Debug("intent gate rejected input",
				"rule", decision.Reason,
				"question_len", len(reqCtx.UserQuestion),
				"attachments", len(reqCtx.Attachments),
			)
			return nil
		}
	}

	candidates := d.runStrategies(normalized, opts.EnabledStrategies)
	candidates = dedupe(candidates)

	if !opts.Validate {
		return materialize(candidates, nil)
	}

	return validate(candidates, source)
}

// runStrategies collects candidates from all enabled strategies in
// their registered order.
func (d *Detector) runStrategies(text string, enabled []string) []api.ToolCallCandidate {
	var filter map[string]bool
	if len(enabled) > 0 {
		filter = make(map[string]bool, len(enabled))
		for _, name := range enabled {
			filter[name] = true
		}
	}

	var all []api.ToolCallCandidate
	for _, s := range d.strategies {
		if filter != nil && !filter[s.Name()] {
			continue
		}
		found := s.Detect(text)
		if len(found) > 0 {
			observability.DetectionCandidatesTotal.WithLabelValues(s.Name()).Add(float64(len(found)))
		}
		all = append(all, found...)
	}
	return all
}

// dedupe removes candidates whose (name, parameters) identity was seen
// before. The first occurrence wins, preserving appearance order.
func dedupe(candidates []api.ToolCallCandidate) []api.ToolCallCandidate {
	seen := make(map[string]bool, len(candidates))
	var unique []api.ToolCallCandidate
	for _, c := range candidates {
		key := c.DedupKey()
		if seen[key] {
			observability.CandidatesDroppedTotal.WithLabelValues("duplicate").Inc()
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	return unique
}

// validate matches candidates against enabled tool definitions. Unknown
// or disabled names are dropped with a log line carrying the raw name.
func validate(candidates []api.ToolCallCandidate, source ToolSource) []api.ValidatedToolCall {
	if source == nil {
		return nil
	}

	var calls []api.ValidatedToolCall
	for _, c := range candidates {
		def, ok := source.Lookup(c.BaseName())
		if !ok {
			observability.CandidatesDroppedTotal.WithLabelValues("unknown_tool").Inc()
			slog.Warn("dropping candidate for unknown or disabled tool",
				"tool", c.Name,
				"source_format", string(c.SourceFormat),
			)
			continue
		}
		calls = append(calls, api.ValidatedToolCall{
			ToolCallCandidate: c,
			CallID:            api.NewCallID(),
			ToolID:            def.ID,
			Validated:         true,
		})
	}
	return calls
}

// materialize wraps candidates without registry validation. ToolID is
// left empty and Validated is false.
func materialize(candidates []api.ToolCallCandidate, _ ToolSource) []api.ValidatedToolCall {
	var calls []api.ValidatedToolCall
	for _, c := range candidates {
		calls = append(calls, api.ValidatedToolCall{
			ToolCallCandidate: c,
			CallID:            api.NewCallID(),
		})
	}
	return calls
}
