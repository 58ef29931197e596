package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/observability"
	"github.com/freitext-dev/freitext/pkg/registry"
)

// DefaultInvocationTimeout bounds a single remote tool invocation.
const DefaultInvocationTimeout = 30 * time.Second

// usageIncrementTimeout bounds the fire-and-forget usage counter update.
const usageIncrementTimeout = 5 * time.Second

// Hooks carries optional progress callbacks for observability and
// streaming UIs. Nil hooks change nothing about correctness.
type Hooks struct {
	// OnStart is called before a tool invocation begins.
	OnStart func(toolName string, index, total int)

	// OnComplete is called after a result is recorded.
	OnComplete func(toolName string, result api.ToolExecutionResult)
}

// Config holds executor settings.
type Config struct {
	// Timeout bounds each remote invocation. Zero means
	// DefaultInvocationTimeout.
	Timeout time.Duration

	// Parallel executes independent calls concurrently. Results are
	// assembled in call order either way.
	Parallel bool
}

// Executor dispatches validated calls through registered invokers.
type Executor struct {
	invokers []Invoker
	reg      *registry.Registry
	cfg      Config
}

// New creates an Executor. Invokers are consulted in order; the first
// whose CanInvoke accepts a definition performs the call. The registry
// may be nil, in which case usage counters are not maintained.
func New(invokers []Invoker, reg *registry.Registry, cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultInvocationTimeout
	}
	return &Executor{invokers: invokers, reg: reg, cfg: cfg}
}

// Execute runs all validated calls and returns one result per call, in
// input order. Individual failures are recorded as data; Execute itself
// never fails.
//
// In-flight invocations run on their own timeout detached from the
// caller's cancellation, so remote side effects and usage counters stay
// consistent when a client disconnects. Calls not yet started when the
// context is cancelled are recorded as cancelled without being sent.
func (e *Executor) Execute(ctx context.Context, calls []api.ValidatedToolCall, snap *registry.Snapshot, hooks Hooks) []api.ToolExecutionResult {
	if len(calls) == 0 {
		return nil
	}

	results := make([]api.ToolExecutionResult, len(calls))

	if e.cfg.Parallel {
		var wg sync.WaitGroup
		for i, call := range calls {
			wg.Add(1)
			go func(idx int, tc api.ValidatedToolCall) {
				defer wg.Done()
				results[idx] = e.executeOne(ctx, tc, snap, idx, len(calls), hooks)
			}(i, call)
		}
		wg.Wait()
	} else {
		for i, call := range calls {
			if ctx.Err() != nil {
				results[i] = failedResult(call, api.ToolDefinition{}, "context cancelled before invocation", 0)
				continue
			}
			results[i] = e.executeOne(ctx, call, snap, i, len(calls), hooks)
		}
	}

	return results
}

// executeOne resolves and invokes a single call, recording metrics and
// recovering from invoker panics.
func (e *Executor) executeOne(ctx context.Context, call api.ValidatedToolCall, snap *registry.Snapshot, index, total int, hooks Hooks) (result api.ToolExecutionResult) {
	if hooks.OnStart != nil {
		hooks.OnStart(call.Name, index, total)
	}
	defer func() {
		if hooks.OnComplete != nil {
			hooks.OnComplete(call.Name, result)
		}
	}()

	def, ok := e.resolve(call, snap)
	if !ok {
		observability.ToolExecutionsTotal.WithLabelValues(call.BaseName(), "unknown").Inc()
		result = failedResult(call, def, fmt.Sprintf("tool %q is not registered or disabled", call.Name), 0)
		return result
	}

	invoker := e.findInvoker(def)
	if invoker == nil {
		observability.ToolExecutionsTotal.WithLabelValues(call.BaseName(), "error").Inc()
		result = failedResult(call, def, fmt.Sprintf("no invoker handles endpoint %q", def.ServiceEndpoint), 0)
		return result
	}

	start := time.Now()

	// Detach from caller cancellation: a started invocation runs to
	// completion on its own timeout so remote side effects finish.
	invokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.Timeout)
	defer cancel()

	// Recover from invoker panics; a buggy invoker must not take the
	// pipeline down.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool invoker panicked",
				"tool", call.Name,
				"call_id", call.CallID,
				"panic", rec,
			)
			observability.ToolExecutionsTotal.WithLabelValues(call.BaseName(), "panic").Inc()
			result = failedResult(call, def, fmt.Sprintf("internal error: invoker for %q panicked", call.Name), time.Since(start))
		}
	}()

	data, err := invoker.Invoke(invokeCtx, def, call)
	duration := time.Since(start)
	observability.ToolInvocationLatency.WithLabelValues(call.BaseName()).Observe(duration.Seconds())

	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("timeout after %s", e.cfg.Timeout)
		}
		slog.Warn("tool invocation failed",
			"tool", call.Name,
			"call_id", call.CallID,
			"duration", duration.String(),
			"error", msg,
		)
		observability.ToolExecutionsTotal.WithLabelValues(call.BaseName(), "error").Inc()
		result = failedResult(call, def, msg, duration)
		return result
	}

	observability.ToolExecutionsTotal.WithLabelValues(call.BaseName(), "success").Inc()
	e.incrementUsage(def)

	result = api.ToolExecutionResult{
		CallID:        call.CallID,
		ToolID:        def.ID,
		ToolName:      call.BaseName(),
		ServiceName:   def.ServiceName,
		Success:       true,
		Data:          data,
		ExecutionTime: duration,
		Timestamp:     time.Now(),
	}
	return result
}

// resolve finds the call's definition, preferring the snapshot the
// pipeline started with over the call's embedded tool ID.
func (e *Executor) resolve(call api.ValidatedToolCall, snap *registry.Snapshot) (api.ToolDefinition, bool) {
	if snap == nil {
		return api.ToolDefinition{}, false
	}
	return snap.Lookup(call.BaseName())
}

// findInvoker returns the first invoker accepting the definition.
func (e *Executor) findInvoker(def api.ToolDefinition) Invoker {
	for _, inv := range e.invokers {
		if inv.CanInvoke(def) {
			return inv
		}
	}
	return nil
}

// incrementUsage bumps the tool's usage counter in the background.
// Failures are logged and otherwise ignored.
func (e *Executor) incrementUsage(def api.ToolDefinition) {
	if e.reg == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageIncrementTimeout)
		defer cancel()
		if err := e.reg.IncrementUsage(ctx, def.ID); err != nil {
			slog.Debug("usage increment failed", "tool", def.Name, "error", err)
		}
	}()
}

// failedResult builds a Success=false result for a call.
func failedResult(call api.ValidatedToolCall, def api.ToolDefinition, msg string, duration time.Duration) api.ToolExecutionResult {
	return api.ToolExecutionResult{
		CallID:        call.CallID,
		ToolID:        def.ID,
		ToolName:      call.BaseName(),
		ServiceName:   def.ServiceName,
		Success:       false,
		Error:         msg,
		ExecutionTime: duration,
		Timestamp:     time.Now(),
	}
}
