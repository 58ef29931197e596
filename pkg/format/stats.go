package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// statsTestKeys are payload fields that may carry a list of test
// results.
var statsTestKeys = []string{"tests", "results", "analyses"}

// StatsFormatter renders statistical-analysis payloads: test names,
// statistics and p-values, with significance highlighted per the
// field-mapping table.
type StatsFormatter struct{}

func (f *StatsFormatter) Name() string { return "stats" }

func (f *StatsFormatter) CanHandle(toolName, category string) bool {
	return category == CategoryStats
}

func (f *StatsFormatter) Format(data json.RawMessage, toolName string, m *Mappings) (string, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decoding payload: %w", err)
	}

	tests, meta := splitTests(payload)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s — Analysis\n\n", titleFor(toolName))

	if guidance := extractGuidance(meta); guidance != "" {
		fmt.Fprintf(&b, "> %s\n\n", guidance)
	}

	b.WriteString(SummaryMarker + "\n")
	fmt.Fprintf(&b, "%d test(s) evaluated.", len(tests))
	if n := significantCount(tests, m); n > 0 {
		fmt.Fprintf(&b, " %d reached significance.", n)
	}
	b.WriteString("\n")
	writeMetaLines(&b, meta, m)
	b.WriteString("\n")

	b.WriteString(DataMarker + "\n")
	if len(tests) == 0 {
		b.WriteString("No test results in the payload.\n")
		return b.String(), nil
	}

	for i, test := range tests {
		fmt.Fprintf(&b, "\n**%d. %s**\n", i+1, testHeading(test, i))
		for _, field := range orderFields(test, CategoryStats, m) {
			fmt.Fprintf(&b, "- %s: %s\n", field.spec.Label, renderValue(field.val, field.spec))
		}
	}

	return b.String(), nil
}

// splitTests separates individual test objects from envelope metadata.
// A payload that is itself one test result becomes a single entry.
func splitTests(payload any) ([]map[string]any, map[string]any) {
	switch v := payload.(type) {
	case []any:
		return toRecordSlice(v), map[string]any{}

	case map[string]any:
		for _, key := range statsTestKeys {
			if list, ok := v[key].([]any); ok {
				meta := make(map[string]any, len(v))
				for k, val := range v {
					if k != key {
						meta[k] = val
					}
				}
				return toRecordSlice(list), meta
			}
		}
		return []map[string]any{v}, map[string]any{}

	default:
		return nil, map[string]any{}
	}
}

func testHeading(test map[string]any, index int) string {
	for _, key := range []string{"test", "test_name", "name", "variable"} {
		if s, ok := test[key].(string); ok && s != "" {
			return truncateText(s, 80)
		}
	}
	return fmt.Sprintf("Test %d", index+1)
}

// significantCount counts tests whose p-value crosses the highlight
// bound configured for the statistical category.
func significantCount(tests []map[string]any, m *Mappings) int {
	spec, ok := m.Lookup(CategoryStats, "p_value")
	if !ok || spec.Highlight == nil {
		return 0
	}
	count := 0
	for _, test := range tests {
		if p, ok := asFloat(test["p_value"]); ok && spec.Highlight.Matches(p) {
			count++
		}
	}
	return count
}
