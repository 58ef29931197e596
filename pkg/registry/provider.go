// Package registry provides read access to the tool registry: the set
// of enabled tool definitions the pipeline validates candidates against.
//
// Definitions are owned by the surrounding application; this package
// only reads them and increments usage counters. The Registry caches a
// point-in-time Snapshot and refreshes it on a TTL or on demand. The
// swap is atomic: in-flight pipelines keep the snapshot they started
// with, concurrent readers never block each other.
package registry

import (
	"context"

	"github.com/freitext-dev/freitext/pkg/api"
)

// Provider is a source of tool definitions. Implementations exist for
// in-memory configuration and PostgreSQL.
type Provider interface {
	// ListEnabledTools returns all currently enabled tool definitions.
	ListEnabledTools(ctx context.Context) ([]api.ToolDefinition, error)

	// IncrementUsage bumps the usage counter for the given tool.
	// Best-effort: lost updates under concurrency are acceptable.
	IncrementUsage(ctx context.Context, toolID string) error

	// Close releases provider resources.
	Close() error
}
