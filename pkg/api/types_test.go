package api

import "testing"

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "lookup_record", "lookup_record"},
		{"uppercase", "Lookup_Record", "lookup_record"},
		{"dotted", "analytics.lookup_record", "lookup_record"},
		{"deeply dotted", "a.b.run_test", "run_test"},
		{"whitespace", "  lookup_record ", "lookup_record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ToolCallCandidate{Name: tt.in}
			if got := c.BaseName(); got != tt.want {
				t.Errorf("BaseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDedupKey_EqualAcrossFormats(t *testing.T) {
	a := ToolCallCandidate{
		Name:         "lookup_record",
		Parameters:   map[string]any{"id": "A1"},
		SourceFormat: SourceFormatStructuredBlock,
	}
	b := ToolCallCandidate{
		Name:         "Lookup_Record",
		Parameters:   map[string]any{"id": "A1"},
		SourceFormat: SourceFormatTaggedElement,
	}

	if a.DedupKey() != b.DedupKey() {
		t.Errorf("expected equal keys, got %q vs %q", a.DedupKey(), b.DedupKey())
	}
}

func TestDedupKey_DifferentParameters(t *testing.T) {
	a := ToolCallCandidate{Name: "lookup_record", Parameters: map[string]any{"id": "A1"}}
	b := ToolCallCandidate{Name: "lookup_record", Parameters: map[string]any{"id": "A2"}}

	if a.DedupKey() == b.DedupKey() {
		t.Error("expected different keys for different parameters")
	}
}

func TestDedupKey_SortedParameterOrder(t *testing.T) {
	// Go's json.Marshal sorts map keys, so insertion order must not matter.
	a := ToolCallCandidate{Name: "t", Parameters: map[string]any{"a": 1, "b": 2}}
	b := ToolCallCandidate{Name: "t", Parameters: map[string]any{"b": 2, "a": 1}}

	if a.DedupKey() != b.DedupKey() {
		t.Errorf("expected identical keys, got %q vs %q", a.DedupKey(), b.DedupKey())
	}
}

func TestHasAttachments(t *testing.T) {
	ctx := RequestContext{}
	if ctx.HasAttachments() {
		t.Error("empty context should report no attachments")
	}

	ctx.Attachments = []Attachment{{Name: "report.pdf"}}
	if !ctx.HasAttachments() {
		t.Error("expected attachments to be reported")
	}
}
