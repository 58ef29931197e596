package detect

import (
	"regexp"
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
)

// TaggedElementStrategy recognizes XML-style tool-call elements:
//
//	<tool_call>
//	  <invoke name="lookup_record">
//	    <parameter name="id">A1</parameter>
//	  </invoke>
//	</tool_call>
//
// A JSON body variant, <tool_call>{...}</tool_call>, is accepted too.
type TaggedElementStrategy struct{}

var (
	taggedInvoke = regexp.MustCompile(`(?is)<tool_call>\s*<invoke\s+name="([^"]+)"[^>]*>(.*?)</invoke>\s*</tool_call>`)
	taggedJSON   = regexp.MustCompile(`(?is)<tool_call>\s*(\{.*?\})\s*</tool_call>`)
	taggedParam  = regexp.MustCompile(`(?is)<parameter\s+name="([^"]+)"\s*>(.*?)</parameter>`)
)

// Name returns "tagged-element".
func (s *TaggedElementStrategy) Name() string { return string(api.SourceFormatTaggedElement) }

// Detect extracts candidates from <tool_call> elements.
func (s *TaggedElementStrategy) Detect(text string) []api.ToolCallCandidate {
	var candidates []api.ToolCallCandidate

	for _, m := range taggedInvoke.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}

		params := map[string]any{}
		for _, pm := range taggedParam.FindAllStringSubmatch(m[2], -1) {
			params[pm[1]] = parseScalar(pm[2])
		}

		candidates = append(candidates, api.ToolCallCandidate{
			Name:         name,
			Parameters:   params,
			SourceFormat: api.SourceFormatTaggedElement,
			Confidence:   confidenceTaggedElement,
			RawSpan:      m[0],
		})
	}

	for _, m := range taggedJSON.FindAllStringSubmatch(text, -1) {
		if c, ok := candidateFromJSON(m[1], api.SourceFormatTaggedElement, confidenceTaggedElement); ok {
			c.RawSpan = m[0]
			candidates = append(candidates, c)
		}
	}

	return candidates
}
