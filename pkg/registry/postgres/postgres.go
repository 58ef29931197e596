// Package postgres provides a PostgreSQL implementation of
// registry.Provider. Tool definitions live in a tools table owned by
// the surrounding application; this provider only reads them and bumps
// usage counters. It uses pgx/v5 with connection pooling.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freitext-dev/freitext/pkg/api"
	"github.com/freitext-dev/freitext/pkg/registry"
)

// Provider is a PostgreSQL-backed tool definition source.
type Provider struct {
	pool *pgxpool.Pool
}

// Ensure Provider implements registry.Provider at compile time.
var _ registry.Provider = (*Provider)(nil)

// New creates a PostgreSQL provider with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	p := &Provider{pool: pool}

	if cfg.MigrateOnStart {
		if err := p.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return p, nil
}

// ListEnabledTools returns all enabled definitions ordered by priority.
func (p *Provider) ListEnabledTools(ctx context.Context) ([]api.ToolDefinition, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, description, parameter_schema,
		       service_id, service_name, service_endpoint,
		       priority, usage_count
		FROM tools
		WHERE enabled = TRUE
		ORDER BY priority, name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tools: %w", err)
	}
	defer rows.Close()

	var tools []api.ToolDefinition
	for rows.Next() {
		var td api.ToolDefinition
		var description, serviceName *string
		var schema []byte

		if err := rows.Scan(
			&td.ID, &td.Name, &description, &schema,
			&td.ServiceID, &serviceName, &td.ServiceEndpoint,
			&td.Priority, &td.UsageCount,
		); err != nil {
			return nil, fmt.Errorf("scanning tool row: %w", err)
		}

		if description != nil {
			td.Description = *description
		}
		if serviceName != nil {
			td.ServiceName = *serviceName
		}
		td.ParameterSchema = schema
		td.Enabled = true
		tools = append(tools, td)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool rows: %w", err)
	}

	return tools, nil
}

// IncrementUsage bumps the usage counter. A plain UPDATE is enough;
// the counter tolerates lost updates by contract.
func (p *Provider) IncrementUsage(ctx context.Context, toolID string) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE tools SET usage_count = usage_count + 1 WHERE id = $1",
		toolID,
	)
	if err != nil {
		return fmt.Errorf("incrementing usage for %s: %w", toolID, err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Provider) Close() error {
	p.pool.Close()
	return nil
}
