package detect

import (
	"regexp"
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
)

// StructuredBlockStrategy recognizes fenced code blocks containing a
// JSON object with explicit tool/parameters keys:
//
//	```json
//	{"tool": "lookup_record", "parameters": {"id": "A1"}}
//	```
//
// The fence language tag is optional. Blocks that do not parse as a
// tool-call object are skipped.
type StructuredBlockStrategy struct{}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z_]*[ \t]*\n?(.*?)```")

// Name returns "structured-block".
func (s *StructuredBlockStrategy) Name() string { return string(api.SourceFormatStructuredBlock) }

// Detect extracts candidates from fenced JSON blocks.
func (s *StructuredBlockStrategy) Detect(text string) []api.ToolCallCandidate {
	var candidates []api.ToolCallCandidate

	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[1])
		if !strings.HasPrefix(body, "{") {
			continue
		}
		if c, ok := candidateFromJSON(body, api.SourceFormatStructuredBlock, confidenceStructuredBlock); ok {
			candidates = append(candidates, c)
		}
	}

	return candidates
}
