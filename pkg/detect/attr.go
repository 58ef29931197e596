package detect

import (
	"regexp"
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
)

// AttributeTagStrategy recognizes self-closing tags carrying the call
// in attributes:
//
//	<tool name="lookup_record" parameters='{"id": "A1"}' />
//
// When no parameters attribute is present, the remaining attributes
// become string parameters:
//
//	<tool name="lookup_record" id="A1" />
type AttributeTagStrategy struct{}

var (
	attrTag      = regexp.MustCompile(`(?i)<tool\s+((?:[\w-]+=(?:"[^"]*"|'[^']*')\s*)+)/?>`)
	attrPair     = regexp.MustCompile(`([\w-]+)=(?:"([^"]*)"|'([^']*)')`)
	attrParamKey = map[string]bool{"parameters": true, "params": true, "arguments": true}
)

// Name returns "attribute-tag".
func (s *AttributeTagStrategy) Name() string { return string(api.SourceFormatAttributeTag) }

// Detect extracts candidates from attribute-style tool tags.
func (s *AttributeTagStrategy) Detect(text string) []api.ToolCallCandidate {
	var candidates []api.ToolCallCandidate

	for _, m := range attrTag.FindAllStringSubmatch(text, -1) {
		var name string
		var paramJSON string
		extra := map[string]any{}

		for _, am := range attrPair.FindAllStringSubmatch(m[1], -1) {
			key := strings.ToLower(am[1])
			value := am[2]
			if value == "" {
				value = am[3]
			}

			switch {
			case key == "name":
				name = strings.TrimSpace(value)
			case attrParamKey[key]:
				paramJSON = value
			default:
				extra[am[1]] = parseScalar(value)
			}
		}

		if name == "" {
			continue
		}

		params := extra
		if paramJSON != "" {
			// An explicit parameters attribute must be a JSON object;
			// otherwise the span is malformed and skipped.
			wrapped := `{"tool":"` + name + `","parameters":` + paramJSON + `}`
			c, ok := candidateFromJSON(wrapped, api.SourceFormatAttributeTag, confidenceAttributeTag)
			if !ok {
				continue
			}
			params = c.Parameters
		}

		candidates = append(candidates, api.ToolCallCandidate{
			Name:         name,
			Parameters:   params,
			SourceFormat: api.SourceFormatAttributeTag,
			Confidence:   confidenceAttributeTag,
			RawSpan:      m[0],
		})
	}

	return candidates
}
