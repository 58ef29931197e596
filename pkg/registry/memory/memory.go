// Package memory provides an in-memory registry.Provider for testing
// and static deployments where tools are configured at startup.
package memory

import (
	"context"
	"sync"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/registry"
)

// Provider holds tool definitions in memory.
type Provider struct {
	mu    sync.RWMutex
	tools []api.ToolDefinition
	usage map[string]int64
}

// Ensure Provider implements registry.Provider at compile time.
var _ registry.Provider = (*Provider)(nil)

// New creates a Provider with the given definitions.
func New(tools []api.ToolDefinition) *Provider {
	return &Provider{
		tools: tools,
		usage: make(map[string]int64),
	}
}

// ListEnabledTools returns the enabled definitions.
func (p *Provider) ListEnabledTools(_ context.Context) ([]api.ToolDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var enabled []api.ToolDefinition
	for _, td := range p.tools {
		if td.Enabled {
			td.UsageCount += p.usage[td.ID]
			enabled = append(enabled, td)
		}
	}
	return enabled, nil
}

// IncrementUsage bumps the in-memory usage counter.
func (p *Provider) IncrementUsage(_ context.Context, toolID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage[toolID]++
	return nil
}

// SetEnabled toggles a tool by ID. Used by tests and admin tooling.
func (p *Provider) SetEnabled(toolID string, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.tools {
		if p.tools[i].ID == toolID {
			p.tools[i].Enabled = enabled
		}
	}
}

// Usage returns the current counter for a tool ID.
func (p *Provider) Usage(toolID string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.usage[toolID]
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
