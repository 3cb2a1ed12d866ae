package gcs

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
)

// Module is the Fx module for the GCS storage adapter.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGCSProvider,
		fx.ResultTags(`group:"`+storageAdapter.StorageProviderGroup+`"`),
	)),
)
