package detect

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/freitext-dev/freitext/pkg/api"
)

// SimpleTaggedStrategy recognizes the loose two-line form:
//
//	Tool: lookup_record
//	Parameters: {"id": "A1"}
//
// The parameters line is optional; a lone "Tool:" line yields a call
// with empty parameters. This convention is the most ambiguous of the
// five and carries the lowest confidence.
type SimpleTaggedStrategy struct{}

var (
	simpleToolLine  = regexp.MustCompile(`(?i)^\s*tool:\s*([A-Za-z_][\w.-]*)\s*$`)
	simpleParamLine = regexp.MustCompile(`(?i)^\s*parameters?:\s*(\{.*\})\s*$`)
)

// Name returns "simple-tagged".
func (s *SimpleTaggedStrategy) Name() string { return string(api.SourceFormatSimpleTagged) }

// Detect extracts candidates from Tool:/Parameters: line pairs.
func (s *SimpleTaggedStrategy) Detect(text string) []api.ToolCallCandidate {
	var candidates []api.ToolCallCandidate

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		tm := simpleToolLine.FindStringSubmatch(lines[i])
		if tm == nil {
			continue
		}

		rawSpan := strings.TrimSpace(lines[i])
		params := map[string]any{}

		// Look at the next non-empty line for a parameters literal.
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if pm := simpleParamLine.FindStringSubmatch(lines[j]); pm != nil {
				if !gjson.Valid(pm[1]) || !gjson.Parse(pm[1]).IsObject() {
					// Malformed parameters: skip the pair entirely.
					params = nil
				} else if m, ok := gjson.Parse(pm[1]).Value().(map[string]any); ok {
					params = m
					rawSpan = rawSpan + "\n" + strings.TrimSpace(lines[j])
					i = j
				}
			}
			break
		}
		if params == nil {
			continue
		}

		candidates = append(candidates, api.ToolCallCandidate{
			Name:         tm[1],
			Parameters:   params,
			SourceFormat: api.SourceFormatSimpleTagged,
			Confidence:   confidenceSimpleTagged,
			RawSpan:      rawSpan,
		})
	}

	return candidates
}
