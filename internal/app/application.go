// Package app assembles the sounding archive from its Fx modules.
package app

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	"github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm/mysql"
	"github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm/postgres"
	"github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm/sqlite"
	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
	"github.com/tigerroll/soundings/pkg/archive/adapter/storage/gcs"
	"github.com/tigerroll/soundings/pkg/archive/adapter/storage/local"
	"github.com/tigerroll/soundings/pkg/archive/core/application/usecase"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	coremetrics "github.com/tigerroll/soundings/pkg/archive/core/metrics"
	inframetrics "github.com/tigerroll/soundings/pkg/archive/infrastructure/metrics"
	"github.com/tigerroll/soundings/pkg/archive/infrastructure/migration"
	sqlrepo "github.com/tigerroll/soundings/pkg/archive/infrastructure/repository/sql"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// Options returns the complete application graph. extra is appended last, so callers
// can add fx.Populate or fx.Invoke options.
func Options(envFilePath string, embeddedConfig config.EmbeddedConfig, extra ...fx.Option) []fx.Option {
	opts := []fx.Option{
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		),
		logger.Module,
		config.Module,

		gormadapter.Module,
		sqlite.Module,
		postgres.Module,
		mysql.Module,
		migration.Module,
		sqlrepo.Module,

		storageAdapter.Module,
		local.Module,
		gcs.Module,

		coremetrics.Module,
		inframetrics.Module,

		usecase.Module,

		fx.Invoke(registerIndexLifecycle),
	}
	return append(opts, extra...)
}

// indexLifecycleParams are the dependencies of registerIndexLifecycle.
type indexLifecycleParams struct {
	fx.In
	Lifecycle   fx.Lifecycle
	Cfg         *config.IndexConfig
	DBResolver  database.DBConnectionResolver
	Schema      *migration.SchemaManager
	DBProviders []database.DBProvider `group:"db_providers"`
	Storage     *storageAdapter.ConnectionResolver
}

// registerIndexLifecycle migrates the index database on start and closes every
// database and payload store connection on stop.
func registerIndexLifecycle(p indexLifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Cfg.SkipMigrations {
				logger.Infof("Index migrations skipped by configuration.")
				return nil
			}
			conn, err := p.DBResolver.ResolveDBConnection(ctx, p.Cfg.DBRef)
			if err != nil {
				return err
			}
			if err := p.Schema.Apply(ctx, conn); err != nil {
				return err
			}
			logger.Infof("Index schema on '%s' (%s) is up to date.", conn.Name(), conn.Type())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var result error
			if err := p.Storage.CloseAll(); err != nil {
				result = multierror.Append(result, err)
			}
			for _, provider := range p.DBProviders {
				if err := provider.CloseAll(); err != nil {
					result = multierror.Append(result, err)
				}
			}
			logger.Infof("Archive connections closed.")
			return result
		},
	})
}
