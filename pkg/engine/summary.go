package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/observability"
	"github.com/freitext-dev/freitext/pkg/provider"
)

// unavailableNote is appended to the formatted report when the
// secondary pass cannot produce a summary.
const unavailableNote = "_A natural-language analysis is temporarily unavailable; the structured results above are complete._"

// summarize runs the secondary pass: one deterministic model call over
// the user's question and the raw successful payloads only. It returns
// the summary text, or an error when the call failed or came back
// empty.
func (o *Orchestrator) summarize(ctx context.Context, reqCtx api.RequestContext, results []api.ToolExecutionResult) (string, error) {
	input := summaryInput(reqCtx.UserQuestion, results)

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.SummaryTimeout)
	defer cancel()

	resp, err := o.provider.Complete(callCtx, &provider.Request{
		Model: o.cfg.Model,
		Messages: []provider.Message{
			{Role: "system", Content: summarySystemPrompt(o.cfg.MaxSummarySentences)},
			{Role: "user", Content: input},
		},
		Temperature: provider.Zero(),
		MaxTokens:   o.cfg.SummaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summary call failed: %w", err)
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", fmt.Errorf("summary call returned empty content")
	}
	return summary, nil
}

// summaryInput restricts the secondary-pass input to the question and
// the raw successful payloads. The formatted report is deliberately
// excluded so the model cannot echo presentation artifacts as facts.
func summaryInput(question string, results []api.ToolExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nTool data:\n", question)
	for _, r := range results {
		if !r.Success {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n%s\n", r.ToolName, string(r.Data))
	}
	return b.String()
}

func summarySystemPrompt(maxSentences int) string {
	return fmt.Sprintf(
		"You summarize verified tool output. Answer the user's question in at most %d short sentences, "+
			"using only the provided tool data. Never mention fields or values absent from the data. "+
			"If the data does not answer the question, say so.", maxSentences)
}

// withSummaryFallback recovers a failed secondary pass by returning
// the formatted report with an unavailability note.
func summaryFallback(report string, err error) string {
	slog.Warn("secondary pass failed, falling back to formatted report", "error", err)
	observability.SecondaryPassTotal.WithLabelValues("fallback").Inc()
	return report + "\n\n" + unavailableNote
}
