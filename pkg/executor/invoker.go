package executor

import (
	"context"
	"encoding/json"

	"github.com/freitext-dev/freitext/pkg/api"
)

// Invoker performs one remote tool invocation against a service
// endpoint. Implementations must be safe for concurrent use.
type Invoker interface {
	// CanInvoke reports whether this invoker handles the definition's
	// endpoint.
	CanInvoke(def api.ToolDefinition) bool

	// Invoke sends the call's parameters to the tool's service and
	// returns the raw JSON payload. Transport failures, timeouts, and
	// error payloads are returned as errors; the executor converts
	// them into failed results.
	Invoke(ctx context.Context, def api.ToolDefinition, call api.ValidatedToolCall) (json.RawMessage, error)
}
