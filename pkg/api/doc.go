// Package api defines the core data model of the freitext pipeline:
// tool definitions, detected tool-call candidates, validated calls,
// execution results, and the orchestration result returned to callers.
//
// All types are plain data. Candidates and results are immutable once
// created; the pipeline builds new values instead of mutating old ones.
//
// This package depends only on the Go standard library.
package api
