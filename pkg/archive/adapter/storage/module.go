package storage

import (
	"go.uber.org/fx"
)

// Module provides the StorageConnectionResolver. Store types are installed by the
// local and gcs sub-packages.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewConnectionResolver,
		fx.As(fx.Self()),
		fx.As(new(StorageConnectionResolver)),
	)),
)
