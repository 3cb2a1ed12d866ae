package sql

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
)

// Module provides the SQL archive index as repository.ArchiveIndex.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewArchiveIndex,
		fx.As(new(repository.ArchiveIndex)),
	)),
)
