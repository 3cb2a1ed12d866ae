package local

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
)

// Module is the Fx module for the local storage adapter.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLocalProvider,
		fx.ResultTags(`group:"`+storageAdapter.StorageProviderGroup+`"`),
	)),
)
