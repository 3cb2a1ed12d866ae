package postgres

import (
	"go.uber.org/fx"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
)

// Module exports the PostgreSQL DBProvider for dependency injection.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewProvider,
			fx.ResultTags(`group:"`+database.DBProviderGroup+`"`),
		),
	),
)
