package api

import "fmt"

// ErrorType categorizes a pipeline error per the failure taxonomy.
type ErrorType string

const (
	// ErrorTypeDetectionParse marks a span that resembled a convention
	// but failed to parse. These are dropped, not surfaced.
	ErrorTypeDetectionParse ErrorType = "detection_parse"

	// ErrorTypeUnknownTool marks a candidate whose name matched no
	// enabled tool definition.
	ErrorTypeUnknownTool ErrorType = "unknown_tool"

	// ErrorTypeToolExecution marks a failed, timed-out, or rejected
	// remote invocation. Recorded as result data, never thrown.
	ErrorTypeToolExecution ErrorType = "tool_execution"

	// ErrorTypeFormatting marks a renderer failure, recovered at the
	// formatter factory boundary.
	ErrorTypeFormatting ErrorType = "formatting"

	// ErrorTypeSecondaryPass marks a failed or empty summarization
	// call, recovered by falling back to the formatted report.
	ErrorTypeSecondaryPass ErrorType = "secondary_pass"

	// ErrorTypePipeline marks an unexpected failure outside all other
	// categories, caught at the orchestrator's outer boundary.
	ErrorTypePipeline ErrorType = "pipeline"
)

// PipelineError is a structured pipeline error. Everything below the
// orchestrator boundary is recovered locally; only PipelineError values
// reach callers, never raw panics.
type PipelineError struct {
	Type    ErrorType `json:"type"`
	Tool    string    `json:"tool,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s: %s (tool: %s)", e.Type, e.Message, e.Tool)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewToolExecutionError creates a PipelineError for a failed invocation.
func NewToolExecutionError(tool, message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeToolExecution, Tool: tool, Message: message}
}

// NewFormattingError creates a PipelineError for a renderer failure.
func NewFormattingError(tool, message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeFormatting, Tool: tool, Message: message}
}

// NewSecondaryPassError creates a PipelineError for a failed summary call.
func NewSecondaryPassError(message string) *PipelineError {
	return &PipelineError{Type: ErrorTypeSecondaryPass, Message: message}
}

// NewPipelineError creates a PipelineError for a catastrophic failure.
func NewPipelineError(message string) *PipelineError {
	return &PipelineError{Type: ErrorTypePipeline, Message: message}
}
