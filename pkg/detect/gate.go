package detect

import (
	"regexp"
	"strings"

	"github.com/freitext-dev/freitext/pkg/api"
)

// GateConfig holds the intent-gate policy knobs. All thresholds are
// heuristic constants tuned in production; they are configuration, not
// code, so deployments can adjust them.
type GateConfig struct {
	// MinQuestionLength is the shortest user message (in runes) that is
	// allowed to trigger detection when files are attached.
	MinQuestionLength int

	// TheoryPatterns are regular expressions matching theory/definition
	// questions that should be answered from knowledge, not tools.
	TheoryPatterns []string

	// FileAnalysisPhrases are substrings marking a bare "analyze this
	// file" request.
	FileAnalysisPhrases []string
}

// DefaultGateConfig returns the gate policy defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinQuestionLength: 12,
		TheoryPatterns: []string{
			`(?i)^\s*what\s+is\b`,
			`(?i)^\s*what\s+are\b`,
			`(?i)^\s*explain\b`,
			`(?i)^\s*define\b`,
			`(?i)^\s*how\s+does\b.*\bwork\b`,
		},
		FileAnalysisPhrases: []string{
			"analyze this file",
			"analyze the file",
			"analyze this document",
			"summarize this file",
			"summarize this document",
			"what does this file",
		},
	}
}

// GateDecision is the outcome of the intent gate.
type GateDecision struct {
	// Allow reports whether detection should run at all.
	Allow bool

	// Reason names the rule that rejected the input, for logging.
	Reason string
}

// IntentGate decides whether tool-call detection should run for a given
// model reply and request context. It exists to avoid false positives
// when a user merely uploads a document instead of asking for a live
// lookup. Explicit tool-call syntax in the reply always wins.
type IntentGate struct {
	cfg      GateConfig
	theory   []*regexp.Regexp
	phrases  []string
}

// NewIntentGate compiles the gate policy. Invalid theory patterns are
// dropped rather than failing construction.
func NewIntentGate(cfg GateConfig) *IntentGate {
	g := &IntentGate{cfg: cfg}
	for _, p := range cfg.TheoryPatterns {
		if re, err := regexp.Compile(p); err == nil {
			g.theory = append(g.theory, re)
		}
	}
	for _, p := range cfg.FileAnalysisPhrases {
		g.phrases = append(g.phrases, strings.ToLower(p))
	}
	return g
}

// explicitSyntax is a cheap probe for any of the five conventions. It
// exists only for the gate's override rule; the strategies do the real
// parsing.
var explicitSyntax = regexp.MustCompile(`(?is)` + "```" + `.*?\{.*?"(?:tool|name|function)"|\{\s*"tool"\s*:|<tool_call>|<tool\s+name=|(?m:^\s*tool:\s*\S+)`)

// HasExplicitSyntax reports whether the text contains anything that
// looks like deliberate tool-call syntax.
func HasExplicitSyntax(text string) bool {
	return explicitSyntax.MatchString(text)
}

// Check applies the gate rules to the model reply and request context.
func (g *IntentGate) Check(reply string, reqCtx api.RequestContext) GateDecision {
	// Override: deliberate syntax in the reply is always detected.
	if HasExplicitSyntax(reply) {
		return GateDecision{Allow: true}
	}

	question := strings.ToLower(strings.TrimSpace(reqCtx.UserQuestion))

	// Rule (a): attached files plus a bare file-analysis request.
	if reqCtx.HasAttachments() {
		for _, phrase := range g.phrases {
			if strings.Contains(question, phrase) {
				return GateDecision{Reason: "file-analysis-request"}
			}
		}
	}

	// Rule (b): theory/definition question.
	for _, re := range g.theory {
		if re.MatchString(question) {
			return GateDecision{Reason: "theory-question"}
		}
	}

	// Rule (c): very short message accompanying a file.
	if reqCtx.HasAttachments() && len([]rune(question)) < g.cfg.MinQuestionLength {
		return GateDecision{Reason: "short-message-with-file"}
	}

	return GateDecision{Allow: true}
}
