package gorm

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
	config "github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// GormDBConnectionResolver is the gorm implementation of database.DBConnectionResolver.
type GormDBConnectionResolver struct {
	dbProviders map[string]database.DBProvider
	cfg         *config.Config
}

// DBConnectionResolverParams are the Fx dependencies of NewGormDBConnectionResolver.
type DBConnectionResolverParams struct {
	fx.In
	DBProviders []database.DBProvider `group:"db_providers"`
	Cfg         *config.Config
}

// NewGormDBConnectionResolver indexes the registered providers by database type.
func NewGormDBConnectionResolver(p DBConnectionResolverParams) *GormDBConnectionResolver {
	providerMap := make(map[string]database.DBProvider, len(p.DBProviders))
	for _, provider := range p.DBProviders {
		providerMap[provider.Type()] = provider
	}
	return &GormDBConnectionResolver{dbProviders: providerMap, cfg: p.Cfg}
}

// ResolveDBConnection returns the named connection. A connection that no longer answers
// a ping is closed and re-opened.
func (r *GormDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (database.DBConnection, error) {
	dbConfig, err := LookupDatabaseConfig(r.cfg, name)
	if err != nil {
		return nil, fmt.Errorf("DBConnectionResolver: %w", err)
	}

	provider, ok := r.dbProviders[dbConfig.Type]
	if !ok {
		return nil, fmt.Errorf("DBConnectionResolver: DBProvider for type '%s' not found for connection '%s'", dbConfig.Type, name)
	}

	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("DBConnectionResolver: failed to get connection '%s': %w", name, err)
	}

	if pingErr := conn.RefreshConnection(ctx); pingErr != nil {
		logger.Warnf("DBConnectionResolver: Connection '%s' is invalid (%v). Attempting to reconnect.", name, pingErr)
		reconnectedConn, reconnectErr := provider.ForceReconnect(name)
		if reconnectErr != nil {
			return nil, fmt.Errorf("DBConnectionResolver: failed to reconnect connection '%s': %w", name, reconnectErr)
		}
		logger.Infof("DBConnectionResolver: Successfully reconnected connection '%s'.", name)
		return reconnectedConn, nil
	}
	return conn, nil
}

// ResolveConnection implements coreAdapter.ResourceConnectionResolver.
func (r *GormDBConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveDBConnection(ctx, name)
}

var _ database.DBConnectionResolver = (*GormDBConnectionResolver)(nil)
