package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageAdapter "github.com/tigerroll/soundings/pkg/archive/adapter/storage"
	"github.com/tigerroll/soundings/pkg/archive/adapter/storage/local"
	"github.com/tigerroll/soundings/pkg/archive/core/application/usecase"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	sqlrepo "github.com/tigerroll/soundings/pkg/archive/infrastructure/repository/sql"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	archivetest "github.com/tigerroll/soundings/pkg/archive/test"
)

var now = time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC)

type fixture struct {
	archive *usecase.DefaultArchive
	index   *sqlrepo.SQLArchiveIndex
	clock   *clockwork.FakeClock
	dir     string
	cfg     *config.IndexConfig
}

func newFixture(t *testing.T, wrap func(storageAdapter.StorageConnectionResolver) storageAdapter.StorageConnectionResolver) *fixture {
	t.Helper()
	dir := t.TempDir()

	root := config.NewConfig()
	root.Soundings.AdapterConfigs["storage"] = map[string]interface{}{
		"payloads": map[string]interface{}{"type": "local", "base_dir": dir},
	}
	root.Soundings.Index.RetentionDays = 30
	resolver := storageAdapter.StorageConnectionResolver(storageAdapter.NewConnectionResolver(storageAdapter.ConnectionResolverParams{
		Providers: []storageAdapter.StorageProvider{local.NewLocalProvider(root)},
		Cfg:       root,
	}))
	if wrap != nil {
		resolver = wrap(resolver)
	}

	idx := archivetest.NewSQLiteIndex(t)
	clock := clockwork.NewFakeClockAt(now)
	cfg := &root.Soundings.Index
	a := usecase.NewDefaultArchive(usecase.DefaultArchiveParams{
		Index:     idx,
		TxManager: idx.TxManager,
		Storage:   resolver,
		Cfg:       cfg,
		Clock:     clock,
	})
	return &fixture{archive: a, index: idx, clock: clock, dir: dir, cfg: cfg}
}

func (f *fixture) payloadPath(name string) string {
	return filepath.Join(f.dir, f.cfg.Bucket, name)
}

func entryAt(t *testing.T, init time.Time) model.FileEntry {
	t.Helper()
	loc, err := model.NewLocation(35.18, -97.44)
	require.NoError(t, err)
	site := model.NewSite("koun")
	site.LongName = "Norman"
	return model.FileEntry{
		Type:     model.NewModelType("gfs", "bufkit", 6),
		Site:     site,
		Location: loc.WithElevation(357),
		InitTime: init,
		EndTime:  init.Add(180 * time.Hour),
	}
}

func TestAddAndRetrieve(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	init := now.Add(-6 * time.Hour)

	out, err := f.archive.Add(ctx, entryAt(t, init), strings.NewReader("SNPARM = PRES;HGHT"))
	require.NoError(t, err)
	assert.NotEmpty(t, out.FileName)
	assert.NotZero(t, out.Type.ID)

	raw, err := os.ReadFile(f.payloadPath(out.FileName))
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err, "payloads are stored gzip compressed")
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "SNPARM = PRES;HGHT", string(plain))

	entry, data, err := f.archive.Retrieve(ctx, "GFS", "KOUN", init)
	require.NoError(t, err)
	assert.Equal(t, out.FileName, entry.FileName)
	assert.Equal(t, "SNPARM = PRES;HGHT", string(data))

	_, data, err = f.archive.RetrieveFile(ctx, out.FileName)
	require.NoError(t, err)
	assert.Equal(t, "SNPARM = PRES;HGHT", string(data))

	_, _, err = f.archive.Retrieve(ctx, "GFS", "KOUN", init.Add(time.Hour))
	assert.True(t, exception.IsNotFound(err))
}

func TestAdd_DuplicateNeverOverwrites(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	init := now.Add(-6 * time.Hour)

	out, err := f.archive.Add(ctx, entryAt(t, init), strings.NewReader("first"))
	require.NoError(t, err)

	_, err = f.archive.Add(ctx, entryAt(t, init), strings.NewReader("second"))
	require.Error(t, err)
	assert.True(t, exception.IsDuplicateKey(err))

	_, data, err := f.archive.RetrieveFile(ctx, out.FileName)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestAdd_UploadFailureRollsBackIndex(t *testing.T) {
	f := newFixture(t, func(r storageAdapter.StorageConnectionResolver) storageAdapter.StorageConnectionResolver {
		return &failingResolver{StorageConnectionResolver: r, uploadErr: errors.New("bucket quota exceeded")}
	})
	ctx := context.Background()

	_, err := f.archive.Add(ctx, entryAt(t, now), strings.NewReader("payload"))
	require.Error(t, err)
	assert.True(t, exception.IsStoreUnavailable(err))

	n, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "the index rows were rolled back")

	types, err := f.index.Types(ctx)
	require.NoError(t, err)
	assert.Empty(t, types, "dimension rows were rolled back too")
}

func TestAdd_Validation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.archive.Add(context.Background(), entryAt(t, now), nil)
	assert.True(t, exception.IsInvalidArgument(err))

	bad := entryAt(t, now)
	bad.EndTime = bad.InitTime.Add(-time.Hour)
	_, err = f.archive.Add(context.Background(), bad, strings.NewReader("x"))
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestRetrieveLatest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i, body := range []string{"00z", "06z", "12z"} {
		_, err := f.archive.Add(ctx, entryAt(t, now.Add(time.Duration(i-3)*6*time.Hour)), strings.NewReader(body))
		require.NoError(t, err)
	}

	entry, data, err := f.archive.RetrieveLatest(ctx, "gfs", "koun")
	require.NoError(t, err)
	assert.Equal(t, now.Add(-6*time.Hour), entry.InitTime)
	assert.Equal(t, "12z", string(data))

	_, _, err = f.archive.RetrieveLatest(ctx, "nam", "koun")
	assert.True(t, exception.IsNotFound(err))
}

func TestRetrieve_MissingPayload(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	out, err := f.archive.Add(ctx, entryAt(t, now), strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.payloadPath(out.FileName)))

	_, _, err = f.archive.RetrieveFile(ctx, out.FileName)
	assert.True(t, exception.IsNotFound(err))
}

func TestRemove(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	out, err := f.archive.Add(ctx, entryAt(t, now), strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, f.archive.Remove(ctx, out.FileName))
	assert.NoFileExists(t, f.payloadPath(out.FileName))
	_, err = f.index.FindByFileName(ctx, out.FileName)
	assert.True(t, exception.IsNotFound(err))

	err = f.archive.Remove(ctx, out.FileName)
	assert.True(t, exception.IsNotFound(err))
}

func TestRemoveFiles_AggregatesFailures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var names []string
	for i := 0; i < 3; i++ {
		out, err := f.archive.Add(ctx, entryAt(t, now.Add(time.Duration(-i)*6*time.Hour)), strings.NewReader("x"))
		require.NoError(t, err)
		names = append(names, out.FileName)
	}

	removed, err := f.archive.RemoveFiles(ctx, append([]string{"missing-1", names[0]}, append(names[1:], "missing-2")...))
	assert.Equal(t, 3, removed)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.True(t, exception.IsNotFound(merr.Errors[0]))

	n, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	old, err := f.archive.Add(ctx, entryAt(t, now.Add(-40*24*time.Hour)), strings.NewReader("old"))
	require.NoError(t, err)
	edge, err := f.archive.Add(ctx, entryAt(t, now.Add(-30*24*time.Hour)), strings.NewReader("edge"))
	require.NoError(t, err)
	recent, err := f.archive.Add(ctx, entryAt(t, now.Add(-24*time.Hour)), strings.NewReader("recent"))
	require.NoError(t, err)

	removed, err := f.archive.Purge(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "the cutoff itself is kept")
	assert.NoFileExists(t, f.payloadPath(old.FileName))
	assert.FileExists(t, f.payloadPath(edge.FileName))

	f.clock.Advance(24 * time.Hour)
	removed, err = f.archive.Purge(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = f.archive.Purge(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "an explicit age overrides the retention")
	assert.NoFileExists(t, f.payloadPath(recent.FileName))
}

func TestPurge_Disabled(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.RetentionDays = 0
	f.archive = usecase.NewDefaultArchive(usecase.DefaultArchiveParams{
		Index:     f.index,
		TxManager: f.index.TxManager,
		Storage:   &failingResolver{},
		Cfg:       f.cfg,
		Clock:     f.clock,
	})
	removed, err := f.archive.Purge(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCheck(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.archive.Add(ctx, entryAt(t, now), strings.NewReader("a"))
	require.NoError(t, err)
	b, err := f.archive.Add(ctx, entryAt(t, now.Add(-6*time.Hour)), strings.NewReader("b"))
	require.NoError(t, err)

	report, err := f.archive.Check(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 2, report.Stored)

	require.NoError(t, os.Remove(f.payloadPath(a.FileName)))
	require.NoError(t, os.WriteFile(f.payloadPath("stray.buf.gz"), []byte("x"), 0o644))

	report, err = f.archive.Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, []string{a.FileName}, report.MissingPayloads)
	assert.Equal(t, []string{"stray.buf.gz"}, report.UnindexedPayloads)
	assert.NotContains(t, report.MissingPayloads, b.FileName)
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.archive.Add(ctx, entryAt(t, now.Add(time.Duration(-i)*6*time.Hour)), strings.NewReader("x"))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := f.archive.Export(ctx, repository.FileQuery{SiteShortName: "koun", Range: model.Since(now.Add(-7 * time.Hour))}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))

	f.cfg.ExportCompression = "LZ4-RAW"
	bad := usecase.NewDefaultArchive(usecase.DefaultArchiveParams{Index: f.index, TxManager: f.index.TxManager, Cfg: f.cfg})
	_, err = bad.Export(ctx, repository.FileQuery{}, io.Discard)
	assert.True(t, exception.IsInvalidArgument(err))
}

// failingResolver wraps a resolver and makes uploads fail.
type failingResolver struct {
	storageAdapter.StorageConnectionResolver
	uploadErr error
}

func (r *failingResolver) ResolveStorageConnection(ctx context.Context, name string) (storageAdapter.StorageConnection, error) {
	if r.StorageConnectionResolver == nil {
		return nil, errors.New("no payload store")
	}
	conn, err := r.StorageConnectionResolver.ResolveStorageConnection(ctx, name)
	if err != nil {
		return nil, err
	}
	return &failingConnection{StorageConnection: conn, uploadErr: r.uploadErr}, nil
}

type failingConnection struct {
	storageAdapter.StorageConnection
	uploadErr error
}

func (c *failingConnection) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	if c.uploadErr != nil {
		return c.uploadErr
	}
	return c.StorageConnection.Upload(ctx, bucket, objectName, data, contentType)
}
