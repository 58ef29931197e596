package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// recordListKeys are payload fields that may carry the record list.
var recordListKeys = []string{"records", "results", "items", "rows", "data"}

// maxRecords caps how many records are itemized in one report.
const maxRecords = 25

// RecordFormatter renders business-record payloads: a summary with
// counts, then an itemized listing driven by the record-management
// field mappings.
type RecordFormatter struct{}

func (f *RecordFormatter) Name() string { return "record" }

func (f *RecordFormatter) CanHandle(toolName, category string) bool {
	return category == CategoryRecord
}

func (f *RecordFormatter) Format(data json.RawMessage, toolName string, m *Mappings) (string, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decoding payload: %w", err)
	}

	records, meta := splitRecords(payload)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s — Results\n\n", titleFor(toolName))

	if guidance := extractGuidance(meta); guidance != "" {
		fmt.Fprintf(&b, "> %s\n\n", guidance)
	}

	b.WriteString(SummaryMarker + "\n")
	fmt.Fprintf(&b, "%d record(s) returned", len(records))
	if total, ok := asFloat(meta["total"]); ok && int(total) != len(records) {
		fmt.Fprintf(&b, " of %s total", groupNumber(total))
	}
	b.WriteString(".\n")
	delete(meta, "total")
	writeMetaLines(&b, meta, m)
	b.WriteString("\n")

	b.WriteString(DataMarker + "\n")
	if len(records) == 0 {
		b.WriteString("No matching records.\n")
		return b.String(), nil
	}

	shown := records
	if len(shown) > maxRecords {
		shown = shown[:maxRecords]
	}
	for i, rec := range shown {
		fmt.Fprintf(&b, "\n**%d. %s**\n", i+1, recordHeading(rec, i))
		for _, field := range orderFields(rec, CategoryRecord, m) {
			fmt.Fprintf(&b, "- %s: %s\n", field.spec.Label, renderValue(field.val, field.spec))
		}
	}
	if len(records) > maxRecords {
		fmt.Fprintf(&b, "\n(%d further records omitted)\n", len(records)-maxRecords)
	}

	return b.String(), nil
}

// splitRecords separates the record list from surrounding metadata.
// Accepts a bare array, an envelope with a known list field, or a
// single object treated as one record.
func splitRecords(payload any) ([]map[string]any, map[string]any) {
	switch v := payload.(type) {
	case []any:
		return toRecordSlice(v), map[string]any{}

	case map[string]any:
		for _, key := range recordListKeys {
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

func toRecordSlice(list []any) []map[string]any {
	records := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			records = append(records, obj)
		} else {
			records = append(records, map[string]any{"value": el})
		}
	}
	return records
}

// recordHeading picks a display name for one record.
func recordHeading(rec map[string]any, index int) string {
	for _, key := range []string{"name", "title", "id"} {
		if s, ok := rec[key].(string); ok && s != "" {
			return truncateText(s, 80)
		}
	}
	return fmt.Sprintf("Record %d", index+1)
}

// writeMetaLines renders leftover envelope metadata under the summary.
func writeMetaLines(b *strings.Builder, meta map[string]any, m *Mappings) {
	for _, field := range orderFields(meta, CategoryRecord, m) {
		fmt.Fprintf(b, "%s: %s\n", field.spec.Label, renderValue(field.val, field.spec))
	}
}
