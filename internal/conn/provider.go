// Package conn resolves registered database IDs to live connection pools.
package conn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"sqldesk/internal/domain"
)

// Provider caches one *sql.DB pool per registered database. It avoids
// re-opening a pool for every dispatched query against the same target.
type Provider struct {
	mu        sync.RWMutex
	pools     map[string]*sql.DB
	databases domain.DatabaseRepository
	logger    *slog.Logger
}

var _ domain.ConnectionProvider = (*Provider)(nil)

// NewProvider creates a Provider over the given database registry.
func NewProvider(databases domain.DatabaseRepository, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		pools:     make(map[string]*sql.DB),
		databases: databases,
		logger:    logger,
	}
}

// Get returns the cached pool for databaseID, opening it on first use.
// Callers must not close the returned handle. Uses double-checked locking to
// minimise lock contention on the hot path.
func (p *Provider) Get(ctx context.Context, databaseID string) (*sql.DB, *domain.Database, error) {
	target, err := p.databases.GetByID(ctx, databaseID)
	if err != nil {
		return nil, nil, err
	}

	p.mu.RLock()
	if pool, ok := p.pools[databaseID]; ok {
		p.mu.RUnlock()
		return pool, target, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring the write lock.
	if pool, ok := p.pools[databaseID]; ok {
		return pool, target, nil
	}

	pool, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %q (%s): %w", target.Name, target.Driver, err)
	}
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, nil, fmt.Errorf("ping database %q: %w", target.Name, err)
	}

	p.logger.Info("opened target database pool", "database", target.Name, "driver", target.Driver)
	p.pools[databaseID] = pool
	return pool, target, nil
}

// Close closes every cached pool. Called at shutdown.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for id, pool := range p.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close pool %s: %w", id, err)
		}
		delete(p.pools, id)
	}
	return firstErr
}
