package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/tigerroll/soundings/internal/app"
	"github.com/tigerroll/soundings/pkg/archive/core/application/usecase"
	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
)

func TestRun_FreshArchive(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SOUNDINGS_ARCHIVE_ROOT", root)

	require.NoError(t, run(context.Background(), filepath.Join(t.TempDir(), "missing.env"), embeddedConfig))
	assert.FileExists(t, filepath.Join(root, "index.sqlite"))
}

func TestRun_MissingArchiveRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archive")
	t.Setenv("SOUNDINGS_ARCHIVE_ROOT", root)

	require.NoError(t, run(context.Background(), filepath.Join(t.TempDir(), "missing.env"), embeddedConfig))
	assert.FileExists(t, filepath.Join(root, "index.sqlite"))
}

func TestRun_ExistingArchive(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SOUNDINGS_ARCHIVE_ROOT", root)
	envFile := filepath.Join(t.TempDir(), "missing.env")

	var archive usecase.Archive
	fxApp := fx.New(app.Options(envFile, embeddedConfig, fx.Populate(&archive))...)
	ctx := context.Background()
	require.NoError(t, fxApp.Start(ctx))

	loc, err := model.NewLocation(35.18, -97.44)
	require.NoError(t, err)
	_, err = archive.Add(ctx, model.FileEntry{
		Type:     model.NewModelType("GFS", model.FileTypeBufkit, 6),
		Site:     model.NewSite("KOUN"),
		Location: loc,
		InitTime: time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC),
		EndTime:  time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC),
	}, bytes.NewReader([]byte("SNPARM = PRES;HGHT")))
	require.NoError(t, err)
	require.NoError(t, fxApp.Stop(ctx))

	require.NoError(t, run(ctx, envFile, embeddedConfig), "retention is disabled by default")

	fxApp = fx.New(app.Options(envFile, embeddedConfig, fx.Populate(&archive))...)
	require.NoError(t, fxApp.Start(ctx))
	defer func() { _ = fxApp.Stop(ctx) }()
	report, err := archive.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.True(t, report.Consistent())
}
