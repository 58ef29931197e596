package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/observability"
)

// DefaultRefreshInterval is how long a snapshot stays fresh when no
// interval is configured.
const DefaultRefreshInterval = 5 * time.Minute

// Snapshot is an immutable view of the enabled tools at one point in
// time. It implements the detector's ToolSource contract.
type Snapshot struct {
	tools    []api.ToolDefinition
	byName   map[string]api.ToolDefinition
	loadedAt time.Time
}

// NewSnapshot builds a standalone snapshot from definitions, applying
// the same enabled filter and first-wins conflict rule a registry
// reload applies. Useful for static tool sets and tests.
func NewSnapshot(tools []api.ToolDefinition) *Snapshot {
	return buildSnapshot(tools)
}

// Lookup returns the enabled definition for a lowercased base name.
func (s *Snapshot) Lookup(name string) (api.ToolDefinition, bool) {
	def, ok := s.byName[name]
	return def, ok
}

// Tools returns the definitions in registry order.
func (s *Snapshot) Tools() []api.ToolDefinition {
	return s.tools
}

// LoadedAt returns when this snapshot was taken.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Registry caches tool definitions from a Provider with TTL-based
// refresh. Safe for concurrent use.
type Registry struct {
	provider Provider
	ttl      time.Duration

	// refreshMu serializes refreshes; readers use the atomic pointer
	// and never take it.
	refreshMu sync.Mutex
	current   atomic.Pointer[Snapshot]
}

// New creates a Registry over the given provider. A zero ttl means
// DefaultRefreshInterval.
func New(p Provider, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultRefreshInterval
	}
	return &Registry{provider: p, ttl: ttl}
}

// Snapshot returns the current snapshot, refreshing it first if it is
// missing or older than the TTL. A refresh failure falls back to the
// previous snapshot when one exists.
func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := r.current.Load(); s != nil && time.Since(s.loadedAt) < r.ttl {
		return s, nil
	}

	if err := r.refreshIfStale(ctx); err != nil {
		if s := r.current.Load(); s != nil {
			slog.Warn("registry refresh failed, serving stale snapshot",
				"error", err,
				"snapshot_age", time.Since(s.loadedAt).String(),
			)
			return s, nil
		}
		return nil, err
	}

	return r.current.Load(), nil
}

// refreshIfStale reloads unless another caller already did while we
// waited for the lock. Prevents a refresh stampede on TTL expiry.
func (r *Registry) refreshIfStale(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	if s := r.current.Load(); s != nil && time.Since(s.loadedAt) < r.ttl {
		return nil
	}
	return r.reload(ctx)
}

// Refresh forces a reload from the provider and atomically swaps the
// snapshot.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	return r.reload(ctx)
}

func (r *Registry) reload(ctx context.Context) error {
	tools, err := r.provider.ListEnabledTools(ctx)
	if err != nil {
		observability.RegistryRefreshesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("listing enabled tools: %w", err)
	}

	r.current.Store(buildSnapshot(tools))
	observability.RegistryRefreshesTotal.WithLabelValues("success").Inc()

	slog.Debug("registry snapshot refreshed", "tools", len(tools))
	return nil
}

func buildSnapshot(tools []api.ToolDefinition) *Snapshot {
	byName := make(map[string]api.ToolDefinition, len(tools))
	for _, td := range tools {
		if !td.Enabled {
			// Providers should filter, but a disabled tool must never
			// become executable through the snapshot.
			continue
		}
		key := (api.ToolCallCandidate{Name: td.Name}).BaseName()
		if existing, dup := byName[key]; dup {
			slog.Warn("tool name conflict in registry, keeping first definition",
				"tool", td.Name,
				"winner", existing.ID,
				"loser", td.ID,
			)
			continue
		}
		byName[key] = td
	}

	return &Snapshot{
		tools:    tools,
		byName:   byName,
		loadedAt: time.Now(),
	}
}

// IncrementUsage forwards a usage increment to the provider.
func (r *Registry) IncrementUsage(ctx context.Context, toolID string) error {
	return r.provider.IncrementUsage(ctx, toolID)
}

// Close closes the underlying provider.
func (r *Registry) Close() error {
	return r.provider.Close()
}
