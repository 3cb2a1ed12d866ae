package migration

import (
	"io/fs"

	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/core/config"
)

type schemaManagerParams struct {
	fx.In
	Provider    MigratorProvider
	MigrationFS fs.FS `name:"indexMigrationsFS"`
	Cfg         *config.IndexConfig
}

func newSchemaManager(p schemaManagerParams) *SchemaManager {
	return NewSchemaManagerFromConfig(p.Provider, p.MigrationFS, p.Cfg)
}

// Module provides the index schema migrations.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		ProvideIndexMigrationsFS,
		fx.ResultTags(IndexMigrationsFSTag),
	)),
	fx.Provide(NewMigratorProvider),
	fx.Provide(newSchemaManager),
)
