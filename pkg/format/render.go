package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Section markers emitted by the renderers. The orchestrator's
// completeness predicate looks for these to decide whether a formatted
// report can stand on its own.
const (
	SummaryMarker = "### Summary"
	DataMarker    = "### Data"
)

// unmappedPriority sorts fields without a mapping entry after all
// mapped ones.
const unmappedPriority = 1000

// defaultTruncate caps text values without an explicit truncation.
const defaultTruncate = 500

// binaryElisionThreshold is the value length above which an unmapped
// string is treated as an embedded binary blob.
const binaryElisionThreshold = 2048

// guidanceKeys are payload fields carrying verbatim analysis guidance.
var guidanceKeys = []string{"analysis_guidance", "guidance", "interpretation_hint"}

// orderedField pairs a payload field with its display spec.
type orderedField struct {
	name string
	spec FieldSpec
	val  any
}

// orderFields returns the object's fields sorted by mapping priority,
// then name. Fields without a mapping get the raw name as label and
// the lowest priority.
func orderFields(obj map[string]any, category string, m *Mappings) []orderedField {
	fields := make([]orderedField, 0, len(obj))
	for name, val := range obj {
		spec, ok := m.Lookup(category, name)
		if !ok {
			spec = FieldSpec{Label: name, Priority: unmappedPriority, Type: "text"}
		}
		fields = append(fields, orderedField{name: name, spec: spec, val: val})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].spec.Priority != fields[j].spec.Priority {
			return fields[i].spec.Priority < fields[j].spec.Priority
		}
		return fields[i].name < fields[j].name
	})
	return fields
}

// renderValue renders one field value according to its spec.
func renderValue(val any, spec FieldSpec) string {
	if val == nil {
		return "-"
	}

	switch spec.Type {
	case "binary":
		return elideBinary(val)
	case "number":
		if f, ok := asFloat(val); ok {
			s := groupNumber(f)
			if spec.Highlight.Matches(f) {
				note := spec.Highlight.Note
				if note == "" {
					note = "notable"
				}
				s += " (" + note + ")"
			}
			return s
		}
	case "percent":
		if f, ok := asFloat(val); ok {
			return strconv.FormatFloat(f*100, 'f', 1, 64) + "%"
		}
	case "date":
		if s, ok := val.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.Format("2006-01-02")
			}
			return s
		}
	case "boolean":
		if b, ok := val.(bool); ok {
			if b {
				return "yes"
			}
			return "no"
		}
	case "array":
		if arr, ok := val.([]any); ok {
			return renderArray(arr)
		}
	}

	return renderScalar(val, spec.Truncate)
}

// renderScalar renders any leftover value as text, eliding anything
// that looks like an embedded binary blob.
func renderScalar(val any, truncate int) string {
	switch v := val.(type) {
	case string:
		if looksBinary(v) {
			return elideBinary(v)
		}
		return truncateText(v, truncate)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		return groupNumber(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return groupNumber(f)
		}
		return v.String()
	case []any:
		return renderArray(v)
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return truncateText(string(data), truncate)
	default:
		return truncateText(fmt.Sprintf("%v", v), truncate)
	}
}

// renderArray joins up to eight elements, noting how many were elided.
func renderArray(arr []any) string {
	const limit = 8
	parts := make([]string, 0, limit)
	for i, el := range arr {
		if i == limit {
			parts = append(parts, fmt.Sprintf("and %d more", len(arr)-limit))
			break
		}
		parts = append(parts, renderScalar(el, 80))
	}
	return strings.Join(parts, ", ")
}

// asFloat extracts a numeric value from decoded JSON.
func asFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// groupNumber formats a number with thousands separators. Fractional
// parts are kept to at most four digits without trailing zeros.
func groupNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if len(fracPart) > 4 {
		fracPart = fracPart[:4]
	}
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// truncateText caps a string at limit runes, appending an ellipsis.
func truncateText(s string, limit int) string {
	if limit <= 0 {
		limit = defaultTruncate
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// looksBinary detects data URIs and very long undelimited strings,
// which are almost always embedded base64 payloads.
func looksBinary(s string) bool {
	if strings.HasPrefix(s, "data:") && strings.Contains(s, ";base64,") {
		return true
	}
	return len(s) > binaryElisionThreshold && !strings.ContainsAny(s, " \n\t")
}

// elideBinary replaces a binary value with a size note.
func elideBinary(val any) string {
	if s, ok := val.(string); ok {
		return fmt.Sprintf("[binary data, %d bytes omitted]", len(s))
	}
	return "[binary data omitted]"
}

// extractGuidance pulls a verbatim analysis-guidance string out of the
// payload, removing it from the object so it is not rendered twice.
func extractGuidance(obj map[string]any) string {
	for _, key := range guidanceKeys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				delete(obj, key)
				return s
			}
		}
	}
	return ""
}

// titleFor turns a tool name into a report heading.
func titleFor(toolName string) string {
	name := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(toolName)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
