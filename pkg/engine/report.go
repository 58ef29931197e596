package engine

import (
	"fmt"
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/format"
)

// buildReport renders all execution results, successful and failed
// alike, into one deterministic report. Failures stay visible so the
// user sees which tools could not contribute.
func (o *Orchestrator) buildReport(results []api.ToolExecutionResult) string {
	var sections []string
	for _, r := range results {
		if r.Success {
			sections = append(sections, o.factory.FormatToolResult(r.Data, r.ToolName))
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s — Failed\n\nThe %s tool could not be executed: %s",
			titleOf(r.ToolName), r.ToolName, r.Error))
	}
	return strings.Join(sections, "\n\n---\n\n")
}

// failureReport is the fixed-shape answer when every tool failed. It
// states plainly that no data could be retrieved and embeds the
// per-tool detail; the model's pre-tool text is never used here.
func failureReport(results []api.ToolExecutionResult) string {
	var b strings.Builder
	b.WriteString("I could not retrieve the requested data: none of the tool calls succeeded, so no verified answer is available.\n\n")
	b.WriteString("Failure details:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.ToolName, r.Error)
	}
	b.WriteString("\nPlease try again or check whether the tool services are reachable.")
	return b.String()
}

// titleOf mirrors the formatter headings for failed entries.
func titleOf(toolName string) string {
	name := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(toolName)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// reportComplete decides whether the formatted report can stand on its
// own, skipping the secondary pass. The rule is deliberately simple:
// all configured markers present and a minimum length reached.
func (o *Orchestrator) reportComplete(report string) bool {
	if len(report) < o.cfg.MinReportLength {
		return false
	}
	for _, marker := range o.cfg.CompletenessMarkers {
		if !strings.Contains(report, marker) {
			return false
		}
	}
	return true
}

// defaultMarkers are the section headings the renderers emit.
func defaultMarkers() []string {
	return []string{format.SummaryMarker, format.DataMarker}
}
