package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
)

// ConnectionResolver implements StorageConnectionResolver over every registered provider.
type ConnectionResolver struct {
	providers map[string]StorageProvider
	cfg       *config.Config
}

// ConnectionResolverParams are the Fx dependencies of NewConnectionResolver.
type ConnectionResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
	Cfg       *config.Config
}

// NewConnectionResolver indexes the providers by store type.
func NewConnectionResolver(p ConnectionResolverParams) *ConnectionResolver {
	providers := make(map[string]StorageProvider, len(p.Providers))
	for _, provider := range p.Providers {
		providers[provider.Type()] = provider
	}
	return &ConnectionResolver{providers: providers, cfg: p.Cfg}
}

// ResolveStorageConnection returns the named store, opening it through the provider of its type.
func (r *ConnectionResolver) ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error) {
	storageCfg, err := LookupStorageConfig(r.cfg, name)
	if err != nil {
		return nil, fmt.Errorf("StorageConnectionResolver: %w", err)
	}
	provider, ok := r.providers[storageCfg.Type]
	if !ok {
		return nil, fmt.Errorf("StorageConnectionResolver: no storage provider found for type '%s' (connection '%s')", storageCfg.Type, name)
	}
	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("StorageConnectionResolver: failed to get connection '%s': %w", name, err)
	}
	return conn, nil
}

// ResolveConnection implements coreAdapter.ResourceConnectionResolver.
func (r *ConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveStorageConnection(ctx, name)
}

// CloseAll closes the connections of every provider.
func (r *ConnectionResolver) CloseAll() error {
	var lastErr error
	for _, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

var _ StorageConnectionResolver = (*ConnectionResolver)(nil)
