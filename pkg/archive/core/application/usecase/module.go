package usecase

import (
	"go.uber.org/fx"
)

// Module is the Fx module for the payload archive.
var Module = fx.Options(
	fx.Provide(NewDefaultArchive),
	fx.Provide(func(a *DefaultArchive) Archive { return a }),
)
