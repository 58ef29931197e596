package detect

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/freitext-dev/freitext/pkg/api"
)

// Strategy recognizes one textual convention for expressing a tool call.
// Implementations must be stateless, safe for concurrent use, and must
// never return an error: malformed spans are skipped, not reported.
type Strategy interface {
	// Name returns a stable identifier used for configuration and metrics.
	Name() string

	// Detect extracts candidates from normalized text. The returned
	// slice preserves the order of appearance in the text.
	Detect(text string) []api.ToolCallCandidate
}

// Strategy confidence weights. Explicit structured syntax is less
// ambiguous than loosely tagged free text.
const (
	confidenceStructuredBlock = 0.9
	confidenceInlineLiteral   = 0.85
	confidenceTaggedElement   = 0.8
	confidenceAttributeTag    = 0.75
	confidenceSimpleTagged    = 0.7
)

// DefaultStrategies returns the built-in strategies in their fixed run
// order. Earlier strategies win ties during deduplication.
func DefaultStrategies() []Strategy {
	return []Strategy{
		&StructuredBlockStrategy{},
		&InlineLiteralStrategy{},
		&TaggedElementStrategy{},
		&AttributeTagStrategy{},
		&SimpleTaggedStrategy{},
	}
}

// candidateFromJSON builds a candidate from a JSON object span carrying
// the tool name under "tool", "name", or "function" and parameters under
// "parameters", "arguments", or "params". Returns false if the span is
// not such an object or the parameters are not an object.
func candidateFromJSON(span string, format api.SourceFormat, confidence float64) (api.ToolCallCandidate, bool) {
	if !gjson.Valid(span) {
		return api.ToolCallCandidate{}, false
	}

	obj := gjson.Parse(span)
	if !obj.IsObject() {
		return api.ToolCallCandidate{}, false
	}

	var name string
	for _, key := range []string{"tool", "name", "function"} {
		if v := obj.Get(key); v.Type == gjson.String && v.Str != "" {
			name = v.Str
			break
		}
	}
	if name == "" {
		return api.ToolCallCandidate{}, false
	}

	params := map[string]any{}
	for _, key := range []string{"parameters", "arguments", "params"} {
		v := obj.Get(key)
		if !v.Exists() {
			continue
		}
		if !v.IsObject() {
			// Present but not an object: not a valid call.
			return api.ToolCallCandidate{}, false
		}
		m, ok := v.Value().(map[string]any)
		if !ok {
			return api.ToolCallCandidate{}, false
		}
		params = m
		break
	}

	// Reject parameters that do not survive serialization; such a
	// candidate can never be dispatched.
	if _, err := json.Marshal(params); err != nil {
		return api.ToolCallCandidate{}, false
	}

	return api.ToolCallCandidate{
		Name:         strings.TrimSpace(name),
		Parameters:   params,
		SourceFormat: format,
		Confidence:   confidence,
		RawSpan:      span,
	}, true
}

// parseScalar decodes a parameter value written as text: JSON scalars
// and composites are decoded, anything else stays a string.
func parseScalar(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
