package detect

import (
	"testing"

	"github.com/freitext-dev/freitext/pkg/api"
)

func TestStructuredBlockStrategy(t *testing.T) {
	s := &StructuredBlockStrategy{}

	text := "Let me look that up.\n```json\n{\"tool\": \"lookup_record\", \"parameters\": {\"id\": \"A1\"}}\n```\nOne moment."
	got := s.Detect(text)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Name != "lookup_record" {
		t.Errorf("name = %q, want lookup_record", got[0].Name)
	}
	if got[0].Parameters["id"] != "A1" {
		t.Errorf("parameters[id] = %v, want A1", got[0].Parameters["id"])
	}
	if got[0].SourceFormat != api.SourceFormatStructuredBlock {
		t.Errorf("source format = %q", got[0].SourceFormat)
	}
	if got[0].Confidence != confidenceStructuredBlock {
		t.Errorf("confidence = %f", got[0].Confidence)
	}
}

func TestStructuredBlockStrategy_NoLanguageTag(t *testing.T) {
	s := &StructuredBlockStrategy{}

	text := "```\n{\"tool\": \"run_ttest\", \"parameters\": {}}\n```"
	got := s.Detect(text)
	if len(got) != 1 || got[0].Name != "run_ttest" {
		t.Fatalf("expected run_ttest candidate, got %v", got)
	}
}

func TestStructuredBlockStrategy_MalformedSkipped(t *testing.T) {
	s := &StructuredBlockStrategy{}

	tests := []struct {
		name string
		text string
	}{
		{"broken json", "```json\n{\"tool\": \"x\", \"parameters\": {\n```"},
		{"no tool key", "```json\n{\"foo\": \"bar\"}\n```"},
		{"parameters not object", "```json\n{\"tool\": \"x\", \"parameters\": [1,2]}\n```"},
		{"plain code", "```go\nfunc main() {}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Detect(tt.text); len(got) != 0 {
				t.Errorf("expected no candidates, got %v", got)
			}
		})
	}
}

func TestInlineLiteralStrategy(t *testing.T) {
	s := &InlineLiteralStrategy{}

	text := `Running the lookup now: {"tool": "lookup_record", "parameters": {"id": "A1", "depth": 2}} and then I'll report back.`
	got := s.Detect(text)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Name != "lookup_record" {
		t.Errorf("name = %q", got[0].Name)
	}
	if got[0].Parameters["depth"] != float64(2) {
		t.Errorf("parameters[depth] = %v, want 2", got[0].Parameters["depth"])
	}
	if got[0].SourceFormat != api.SourceFormatInlineLiteral {
		t.Errorf("source format = %q", got[0].SourceFormat)
	}
}

func TestInlineLiteralStrategy_BracesInStrings(t *testing.T) {
	s := &InlineLiteralStrategy{}

	// The parameter value contains braces; the scanner must not stop early.
	text := `{"tool": "search", "parameters": {"query": "find {weird} things"}}`
	got := s.Detect(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Parameters["query"] != "find {weird} things" {
		t.Errorf("query = %v", got[0].Parameters["query"])
	}
}

func TestInlineLiteralStrategy_ProseWithBraces(t *testing.T) {
	s := &InlineLiteralStrategy{}

	text := "In Go, a struct literal looks like T{Field: 1} and maps like map[string]int{}."
	if got := s.Detect(text); len(got) != 0 {
		t.Errorf("expected no candidates from prose, got %v", got)
	}
}

func TestTaggedElementStrategy(t *testing.T) {
	s := &TaggedElementStrategy{}

	text := `<tool_call>
  <invoke name="lookup_record">
    <parameter name="id">A1</parameter>
    <parameter name="limit">5</parameter>
  </invoke>
</tool_call>`
	got := s.Detect(text)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Name != "lookup_record" {
		t.Errorf("name = %q", got[0].Name)
	}
	if got[0].Parameters["id"] != "A1" {
		t.Errorf("parameters[id] = %v", got[0].Parameters["id"])
	}
	// Numeric-looking parameter values decode as numbers.
	if got[0].Parameters["limit"] != float64(5) {
		t.Errorf("parameters[limit] = %v (%T), want 5", got[0].Parameters["limit"], got[0].Parameters["limit"])
	}
}

func TestTaggedElementStrategy_JSONBody(t *testing.T) {
	s := &TaggedElementStrategy{}

	text := `<tool_call>{"tool": "run_ttest", "parameters": {"alpha": 0.05}}</tool_call>`
	got := s.Detect(text)
	if len(got) != 1 || got[0].Name != "run_ttest" {
		t.Fatalf("expected run_ttest, got %v", got)
	}
}

func TestAttributeTagStrategy(t *testing.T) {
	s := &AttributeTagStrategy{}

	text := `<tool name="lookup_record" parameters='{"id": "A1"}' />`
	got := s.Detect(text)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Name != "lookup_record" {
		t.Errorf("name = %q", got[0].Name)
	}
	if got[0].Parameters["id"] != "A1" {
		t.Errorf("parameters[id] = %v", got[0].Parameters["id"])
	}
	if got[0].SourceFormat != api.SourceFormatAttributeTag {
		t.Errorf("source format = %q", got[0].SourceFormat)
	}
}

func TestAttributeTagStrategy_BareAttributes(t *testing.T) {
	s := &AttributeTagStrategy{}

	text := `<tool name="lookup_record" id="A1" limit="3" />`
	got := s.Detect(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Parameters["id"] != "A1" {
		t.Errorf("parameters[id] = %v", got[0].Parameters["id"])
	}
	if got[0].Parameters["limit"] != float64(3) {
		t.Errorf("parameters[limit] = %v", got[0].Parameters["limit"])
	}
}

func TestAttributeTagStrategy_MalformedParameters(t *testing.T) {
	s := &AttributeTagStrategy{}

	text := `<tool name="lookup_record" parameters='{broken' />`
	if got := s.Detect(text); len(got) != 0 {
		t.Errorf("expected malformed span to be skipped, got %v", got)
	}
}

func TestSimpleTaggedStrategy(t *testing.T) {
	s := &SimpleTaggedStrategy{}

	text := "I need live data.\nTool: lookup_record\nParameters: {\"id\": \"A1\"}\nStand by."
	got := s.Detect(text)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Name != "lookup_record" {
		t.Errorf("name = %q", got[0].Name)
	}
	if got[0].Parameters["id"] != "A1" {
		t.Errorf("parameters[id] = %v", got[0].Parameters["id"])
	}
	if got[0].Confidence != confidenceSimpleTagged {
		t.Errorf("confidence = %f", got[0].Confidence)
	}
}

func TestSimpleTaggedStrategy_NoParameters(t *testing.T) {
	s := &SimpleTaggedStrategy{}

	got := s.Detect("Tool: refresh_cache\nThat should do it.")
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if len(got[0].Parameters) != 0 {
		t.Errorf("expected empty parameters, got %v", got[0].Parameters)
	}
}

func TestSimpleTaggedStrategy_MalformedParameters(t *testing.T) {
	s := &SimpleTaggedStrategy{}

	got := s.Detect("Tool: lookup_record\nParameters: {not json}")
	if len(got) != 0 {
		t.Errorf("expected malformed pair to be skipped, got %v", got)
	}
}

func TestStrategies_PlainProse(t *testing.T) {
	prose := "The quarterly numbers look stable. Revenue grew 4% and churn " +
		"held steady at 2.1%. Let me know if you want a deeper breakdown."

	for _, s := range DefaultStrategies() {
		if got := s.Detect(prose); len(got) != 0 {
			t.Errorf("strategy %s produced candidates from plain prose: %v", s.Name(), got)
		}
	}
}
