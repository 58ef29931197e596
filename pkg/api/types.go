package api

import (
	"encoding/json"
	"strings"
	"time"
)

// ToolDefinition describes a remotely executable tool as supplied by the
// tool registry. Definitions are read-only to the pipeline; enable/disable
// and usage counters are mutated by the surrounding application.
type ToolDefinition struct {
	// ID is the registry identifier for this tool.
	ID string `json:"id"`

	// Name is the tool name, unique case-insensitively.
	Name string `json:"name"`

	// Description is an optional human-readable summary.
	Description string `json:"description,omitempty"`

	// ParameterSchema is a JSON-schema-like object describing the
	// tool's parameters. Opaque to the pipeline.
	ParameterSchema json.RawMessage `json:"parameter_schema,omitempty"`

	// ServiceID identifies the service that owns this tool.
	ServiceID string `json:"service_id"`

	// ServiceName is the human-readable service name.
	ServiceName string `json:"service_name,omitempty"`

	// ServiceEndpoint is the base URL tool invocations are sent to.
	// Endpoints with an mcp+http or mcp+https scheme are invoked over
	// MCP instead of plain HTTP.
	ServiceEndpoint string `json:"service_endpoint"`

	// Enabled gates execution. A disabled tool is never executed,
	// even if detected.
	Enabled bool `json:"enabled"`

	// Priority orders tools when several match; lower runs first.
	Priority int `json:"priority,omitempty"`

	// UsageCount is a best-effort execution counter.
	UsageCount int64 `json:"usage_count,omitempty"`
}

// SourceFormat identifies the textual convention a candidate was
// recovered from.
type SourceFormat string

const (
	// SourceFormatStructuredBlock is a fenced code block containing a
	// JSON object with tool/parameters keys.
	SourceFormatStructuredBlock SourceFormat = "structured-block"

	// SourceFormatInlineLiteral is a bare JSON object literal with
	// tool/parameters keys inside running text.
	SourceFormatInlineLiteral SourceFormat = "inline-literal"

	// SourceFormatTaggedElement is an XML-style <tool_call> element
	// with nested invoke/parameter elements.
	SourceFormatTaggedElement SourceFormat = "tagged-element"

	// SourceFormatSimpleTagged is the two-line "Tool: name" /
	// "Parameters: {...}" form.
	SourceFormatSimpleTagged SourceFormat = "simple-tagged"

	// SourceFormatAttributeTag is a self-closing tag carrying the tool
	// name and parameters as attributes.
	SourceFormatAttributeTag SourceFormat = "attribute-tag"
)

// ToolCallCandidate is a raw tool invocation recovered from text by a
// single detection strategy. Candidates are immutable.
type ToolCallCandidate struct {
	// Name is the tool name as written in the text. May be dotted
	// ("module.tool"); validation reduces it to the trailing segment.
	Name string `json:"name"`

	// Parameters holds the decoded call parameters.
	Parameters map[string]any `json:"parameters"`

	// SourceFormat records which convention produced the candidate.
	SourceFormat SourceFormat `json:"source_format"`

	// Confidence is the strategy's fixed weight in [0,1].
	Confidence float64 `json:"confidence"`

	// RawSpan is the matched text span, kept for observability.
	RawSpan string `json:"raw_span,omitempty"`
}

// BaseName returns the candidate name reduced to its trailing dotted
// segment, lowercased. "Analytics.lookup_record" becomes "lookup_record".
func (c ToolCallCandidate) BaseName() string {
	name := c.Name
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// DedupKey returns the identity used for duplicate elimination: the
// lowercased base name plus the canonical JSON serialization of the
// parameters. Two candidates with equal keys are the same call.
func (c ToolCallCandidate) DedupKey() string {
	params, err := json.Marshal(c.Parameters)
	if err != nil {
		// Unserializable parameters never validate; an opaque
		// per-candidate key keeps them from collapsing together.
		params = []byte(c.RawSpan)
	}
	return c.BaseName() + "|" + string(params)
}

// ValidatedToolCall is a candidate confirmed against an enabled tool
// definition in the registry.
type ValidatedToolCall struct {
	ToolCallCandidate

	// CallID uniquely identifies this invocation within the pipeline.
	CallID string `json:"call_id"`

	// ToolID references the matched ToolDefinition.
	ToolID string `json:"tool_id"`

	// Validated is always true for values of this type; it survives
	// serialization so downstream consumers can assert on it.
	Validated bool `json:"validated"`
}

// ToolExecutionResult records the outcome of executing one validated
// call. Exactly one result is produced per call, in call order; failures
// are data, never errors raised to the caller.
type ToolExecutionResult struct {
	// CallID matches the originating ValidatedToolCall.CallID.
	CallID string `json:"call_id"`

	// ToolID and ToolName identify the executed tool.
	ToolID   string `json:"tool_id"`
	ToolName string `json:"tool_name"`

	// ServiceName is the owning service, for reporting.
	ServiceName string `json:"service_name,omitempty"`

	// Success reports whether the invocation produced a payload.
	Success bool `json:"success"`

	// Data is the raw JSON payload on success.
	Data json.RawMessage `json:"data,omitempty"`

	// Error is a human-readable failure description when Success is false.
	Error string `json:"error,omitempty"`

	// ExecutionTime is the wall-clock invocation duration.
	ExecutionTime time.Duration `json:"execution_time_ms"`

	// Timestamp is when the invocation completed.
	Timestamp time.Time `json:"timestamp"`
}

// OrchestrationResult is the pipeline's final output for one model reply.
type OrchestrationResult struct {
	// OriginalResponse is the model reply after thinking-block removal.
	OriginalResponse string `json:"original_response"`

	// HasToolCalls reports whether any validated calls were found.
	HasToolCalls bool `json:"has_tool_calls"`

	// ToolCalls lists the validated calls in detection order.
	ToolCalls []ValidatedToolCall `json:"tool_calls,omitempty"`

	// ToolResults is index-aligned with ToolCalls.
	ToolResults []ToolExecutionResult `json:"tool_results,omitempty"`

	// FormattedResults is the deterministic textual report over all
	// results, empty when no calls ran.
	FormattedResults string `json:"formatted_results,omitempty"`

	// FinalResponse is the user-facing answer.
	FinalResponse string `json:"final_response"`

	// UsedSecondaryPass reports whether a summarization model call
	// produced FinalResponse.
	UsedSecondaryPass bool `json:"used_secondary_pass"`

	// ThinkingContent holds any stripped internal-reasoning block.
	ThinkingContent string `json:"thinking_content,omitempty"`

	// Error is set only on catastrophic pipeline failure.
	Error *PipelineError `json:"error,omitempty"`
}

// Attachment describes a file the user attached to the message that
// produced the model reply. Only metadata matters to the intent gate.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// RequestContext carries per-request information through the pipeline.
type RequestContext struct {
	UserID         string       `json:"user_id,omitempty"`
	ConversationID string       `json:"conversation_id,omitempty"`

	// UserQuestion is the user's literal message, needed by the intent
	// gate and the secondary pass.
	UserQuestion string `json:"user_question"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// HasAttachments reports whether the user attached any files.
func (c RequestContext) HasAttachments() bool {
	return len(c.Attachments) > 0
}
