package detect

import (
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
)

// InlineLiteralStrategy recognizes bare JSON object literals embedded in
// running text, e.g.:
//
//	I'll look that up: {"tool": "lookup_record", "parameters": {"id": "A1"}}
//
// Spans are located with a balanced-brace scan that respects string
// literals, so prose containing stray braces does not break extraction.
type InlineLiteralStrategy struct{}

// Name returns "inline-literal".
func (s *InlineLiteralStrategy) Name() string { return string(api.SourceFormatInlineLiteral) }

// Detect extracts candidates from inline JSON object spans.
func (s *InlineLiteralStrategy) Detect(text string) []api.ToolCallCandidate {
	var candidates []api.ToolCallCandidate

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		span, end := balancedObject(text, i)
		if span == "" {
			continue
		}
		// Cheap pre-filter before full parsing.
		if strings.Contains(span, `"tool"`) || strings.Contains(span, `"name"`) || strings.Contains(span, `"function"`) {
			if c, ok := candidateFromJSON(span, api.SourceFormatInlineLiteral, confidenceInlineLiteral); ok {
				candidates = append(candidates, c)
			}
		}
		// Continue after this object either way; nested objects were
		// already covered by the outer span.
		i = end
	}

	return candidates
}

// balancedObject returns the balanced {...} span starting at start, and
// the index of its closing brace. Returns "" if the braces never balance.
func balancedObject(text string, start int) (string, int) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], i
			}
		}
	}

	return "", start
}
