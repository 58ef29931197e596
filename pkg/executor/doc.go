// Package executor dispatches validated tool calls to their owning
// services and collects outcomes. A failed, timed-out, or rejected
// invocation produces a ToolExecutionResult with Success=false; the
// executor never returns an error for a single tool's failure.
//
// Dispatch is pluggable through the Invoker interface: plain HTTP
// services receive POST {endpoint}/{tool}, MCP-hosted tools (endpoints
// with an mcp+http or mcp+https scheme) are called over the Model
// Context Protocol.
//
// Results are always assembled in original call order, even when calls
// run concurrently; downstream formatting relies on the positional
// correspondence between calls and results.
package executor
