package format

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxRenderDepth bounds recursion into nested payloads.
const maxRenderDepth = 4

// maxListItems bounds how many array elements the generic renderer
// itemizes at one nesting level.
const maxListItems = 15

// GenericFormatter renders any JSON payload as a depth-limited
// itemized listing. It is the fallback at the end of the chain and
// accepts every tool.
type GenericFormatter struct{}

func (f *GenericFormatter) Name() string { return "generic" }

func (f *GenericFormatter) CanHandle(toolName, category string) bool {
	return true
}

func (f *GenericFormatter) Format(data json.RawMessage, toolName string, m *Mappings) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s — Result\n\n", titleFor(toolName))

	if len(data) == 0 {
		b.WriteString(DataMarker + "\n")
		b.WriteString("The tool returned no data.\n")
		return b.String(), nil
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		// Non-JSON output still gets reported as plain text.
		b.WriteString(DataMarker + "\n")
		b.WriteString(truncateText(strings.TrimSpace(string(data)), 0) + "\n")
		return b.String(), nil
	}

	if obj, ok := payload.(map[string]any); ok {
		if guidance := extractGuidance(obj); guidance != "" {
			fmt.Fprintf(&b, "> %s\n\n", guidance)
		}
		payload = obj
	}

	b.WriteString(DataMarker + "\n")
	writeAny(&b, payload, m, 0, "")
	return b.String(), nil
}

// writeAny renders a decoded JSON value as indented bullets.
func writeAny(b *strings.Builder, val any, m *Mappings, depth int, indent string) {
	switch v := val.(type) {
	case map[string]any:
		if depth >= maxRenderDepth {
			fmt.Fprintf(b, "%s- %s\n", indent, renderScalar(v, 120))
			return
		}
		for _, field := range orderFields(v, CategoryGeneric, m) {
			switch nested := field.val.(type) {
			case map[string]any:
				fmt.Fprintf(b, "%s- %s:\n", indent, field.spec.Label)
				writeAny(b, nested, m, depth+1, indent+"  ")
			case []any:
				if allScalar(nested) {
					fmt.Fprintf(b, "%s- %s: %s\n", indent, field.spec.Label, renderArray(nested))
				} else {
					fmt.Fprintf(b, "%s- %s:\n", indent, field.spec.Label)
					writeAny(b, nested, m, depth+1, indent+"  ")
				}
			default:
				fmt.Fprintf(b, "%s- %s: %s\n", indent, field.spec.Label, renderValue(field.val, field.spec))
			}
		}

	case []any:
		if depth >= maxRenderDepth {
			fmt.Fprintf(b, "%s- %s\n", indent, renderArray(v))
			return
		}
		for i, el := range v {
			if i == maxListItems {
				fmt.Fprintf(b, "%s- (%d further items omitted)\n", indent, len(v)-maxListItems)
				break
			}
			switch nested := el.(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s- item %d:\n", indent, i+1)
				writeAny(b, nested, m, depth+1, indent+"  ")
			default:
				fmt.Fprintf(b, "%s- %s\n", indent, renderScalar(el, 120))
			}
		}

	default:
		fmt.Fprintf(b, "%s- %s\n", indent, renderScalar(val, 0))
	}
}

func allScalar(arr []any) bool {
	for _, el := range arr {
		switch el.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}
