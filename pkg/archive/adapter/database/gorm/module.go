package gorm

import (
	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
)

// Module provides the connection resolver and the transaction manager factory.
// Dialect providers are installed by the sqlite, postgres and mysql sub-packages.
var Module = fx.Options(
	fx.Provide(NewGormTransactionManagerFactory),
	fx.Provide(fx.Annotate(
		NewIndexTransactionManager,
		fx.ResultTags(`name:"index"`),
	)),
	fx.Provide(fx.Annotate(
		NewGormDBConnectionResolver,
		fx.As(new(database.DBConnectionResolver)),
		fx.As(new(coreAdapter.ResourceConnectionResolver)),
	)),
)
