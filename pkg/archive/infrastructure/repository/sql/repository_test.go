package sql_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	_ "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm/mysql"
	model "github.com/tigerroll/soundings/pkg/archive/core/domain/model"
	repository "github.com/tigerroll/soundings/pkg/archive/core/domain/repository"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	sqlrepo "github.com/tigerroll/soundings/pkg/archive/infrastructure/repository/sql"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	testutil "github.com/tigerroll/soundings/pkg/archive/test"
)

func newIndex(t *testing.T) *sqlrepo.SQLArchiveIndex {
	t.Helper()
	idx, _ := newIndexWithConn(t)
	return idx
}

func newIndexWithConn(t *testing.T) (*sqlrepo.SQLArchiveIndex, *gormadapter.GormDBAdapter) {
	t.Helper()
	conn := testutil.NewMigratedSQLiteConnection(t)
	resolver := testutil.NewTestSingleConnectionResolver(conn)
	idx := sqlrepo.NewSQLArchiveIndex(resolver, gormadapter.NewGormTransactionManager(resolver, testutil.TestIndexName), testutil.TestIndexName)
	return idx, conn
}

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func gfs() model.SoundingType { return model.NewModelType("gfs", "bufkit", 6) }

func oun() model.Site {
	s := model.NewSite("koun")
	s.LongName = "Norman"
	s.State = model.OK
	return s
}

func norman(t *testing.T) model.Location {
	t.Helper()
	l, err := model.NewLocation(35.18, -97.44)
	require.NoError(t, err)
	return l.WithElevation(357)
}

func entryAt(t *testing.T, init string) model.FileEntry {
	it := utc(init)
	return model.FileEntry{
		Type:     gfs(),
		Site:     oun(),
		Location: norman(t),
		InitTime: it,
		EndTime:  it.Add(180 * time.Hour),
	}
}

// registerDimensions registers the standard type, site and location and returns their ids.
func registerDimensions(t *testing.T, idx *sqlrepo.SQLArchiveIndex) (int64, int64, int64) {
	t.Helper()
	ctx := context.Background()
	typeID, err := idx.RegisterType(ctx, gfs())
	require.NoError(t, err)
	siteID, err := idx.RegisterSite(ctx, oun())
	require.NoError(t, err)
	locID, err := idx.RegisterLocation(ctx, norman(t))
	require.NoError(t, err)
	return typeID, siteID, locID
}

func TestRegisterFile_UniquenessConstraints(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	typeID, siteID, locID := registerDimensions(t, idx)

	init := utc("2020-01-01T00:00:00Z")
	rec := model.FileRecord{
		TypeID: typeID, SiteID: siteID, LocationID: locID,
		InitTime: init, EndTime: init.Add(180 * time.Hour),
		FileName: "2020010100Z_GFS_KOUN.buf.gz",
	}
	require.NoError(t, idx.RegisterFile(ctx, rec))

	sameKey := rec
	sameKey.FileName = "other.buf.gz"
	err := idx.RegisterFile(ctx, sameKey)
	require.Error(t, err)
	assert.True(t, exception.IsDuplicateKey(err), "got %v", err)

	sameName := rec
	sameName.InitTime = init.Add(6 * time.Hour)
	sameName.EndTime = sameName.InitTime.Add(time.Hour)
	err = idx.RegisterFile(ctx, sameName)
	require.Error(t, err)
	assert.True(t, exception.IsDuplicateKey(err), "got %v", err)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := idx.FindByFileName(ctx, rec.FileName)
	require.NoError(t, err)
	assert.Equal(t, "GFS", got.Type.Code)
	assert.Equal(t, "KOUN", got.Site.ShortName)
	assert.Equal(t, model.OK, got.Site.State)
	assert.Equal(t, int64(35180000), got.Location.LatitudeMicro)
	assert.Equal(t, int64(-97440000), got.Location.LongitudeMicro)
	require.NotNil(t, got.Location.ElevationMeters)
	assert.Equal(t, 357, *got.Location.ElevationMeters)
	assert.True(t, init.Equal(got.InitTime))
	assert.True(t, init.Add(180*time.Hour).Equal(got.EndTime))
}

func TestRegisterFile_DanglingReference(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	_, siteID, locID := registerDimensions(t, idx)

	init := utc("2020-01-01T00:00:00Z")
	err := idx.RegisterFile(ctx, model.FileRecord{
		TypeID: 999, SiteID: siteID, LocationID: locID,
		InitTime: init, EndTime: init, FileName: "dangling.buf.gz",
	})
	require.Error(t, err)
	assert.True(t, exception.IsReferentialViolation(err), "got %v", err)
}

func TestRegisterFile_InvalidRecord(t *testing.T) {
	idx := newIndex(t)
	err := idx.RegisterFile(context.Background(), model.FileRecord{FileName: ""})
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestRegisterDimensions_ReuseExistingRows(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	first, err := idx.RegisterType(ctx, gfs())
	require.NoError(t, err)
	changed := gfs()
	changed.FileType = "BUFR"
	second, err := idx.RegisterType(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := idx.Type(ctx, "gfs")
	require.NoError(t, err)
	assert.Equal(t, "BUFKIT", stored.FileType, "registration does not rewrite an existing row")
	require.NotNil(t, stored.IntervalHours)
	assert.Equal(t, 6, *stored.IntervalHours)

	s1, err := idx.RegisterSite(ctx, model.NewSite("kokc"))
	require.NoError(t, err)
	s2, err := idx.RegisterSite(ctx, model.NewSite("KOKC "))
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	base, err := model.NewLocation(35.18, -97.44)
	require.NoError(t, err)
	l1, err := idx.RegisterLocation(ctx, base)
	require.NoError(t, err)
	l2, err := idx.RegisterLocation(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, l1, l2, "unknown elevation deduplicates on coordinates")

	l3, err := idx.RegisterLocation(ctx, base.WithElevation(357))
	require.NoError(t, err)
	assert.NotEqual(t, l1, l3)
	l4, err := idx.RegisterLocation(ctx, base.WithElevation(357).WithTZOffset(-6*3600))
	require.NoError(t, err)
	assert.Equal(t, l3, l4, "the UTC offset is not part of the identity")
}

func TestRegisterDimensions_Validation(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	_, err := idx.RegisterType(ctx, model.SoundingType{Code: " ", FileType: "BUFKIT"})
	assert.True(t, exception.IsInvalidArgument(err))

	_, err = idx.RegisterSite(ctx, model.Site{ShortName: "KOUN", State: "ZZ"})
	assert.True(t, exception.IsInvalidArgument(err))

	_, err = idx.RegisterLocation(ctx, model.Location{LatitudeMicro: 91_000_000})
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestSites_AddUpdateAndBrowse(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	id, err := idx.AddSite(ctx, oun())
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = idx.AddSite(ctx, model.NewSite("KOUN"))
	assert.True(t, exception.IsDuplicateKey(err), "got %v", err)

	upd := model.NewSite("koun")
	upd.LongName = "Norman, OK"
	upd.Mobile = true
	require.NoError(t, idx.UpdateSite(ctx, upd))
	require.NoError(t, idx.UpdateSite(ctx, upd), "an unchanged update still succeeds")

	got, err := idx.Site(ctx, "KOUN")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Norman, OK", got.LongName)
	assert.Equal(t, model.StateProv(""), got.State, "an empty state clears the column")
	assert.True(t, got.Mobile)

	err = idx.UpdateSite(ctx, model.NewSite("NOPE"))
	assert.True(t, exception.IsNotFound(err), "got %v", err)

	_, err = idx.Site(ctx, "NOPE")
	assert.True(t, exception.IsNotFound(err))

	_, err = idx.AddSite(ctx, model.NewSite("KAMA"))
	require.NoError(t, err)
	sites, err := idx.Sites(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "KAMA", sites[0].ShortName)
	assert.Equal(t, "KOUN", sites[1].ShortName)
}

func TestIngest_FindAndList(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	for _, init := range []string{"2020-01-01T12:00:00Z", "2020-01-01T00:00:00Z", "2020-01-01T06:00:00Z", "2020-01-02T00:00:00Z"} {
		stored, err := idx.Ingest(ctx, entryAt(t, init))
		require.NoError(t, err)
		assert.NotZero(t, stored.Type.ID)
		assert.Equal(t, model.CompressedFileName(gfs(), oun(), utc(init)), stored.FileName)
	}

	nam := entryAt(t, "2020-01-01T06:00:00Z")
	nam.Type = model.NewModelType("NAM", "BUFKIT", 6)
	_, err := idx.Ingest(ctx, nam)
	require.NoError(t, err)

	all, err := idx.ListFiles(ctx, repository.FileQuery{SiteShortName: "koun"})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].InitTime.Before(all[i-1].InitTime), "ascending init time")
	}

	day := model.TimeRange{From: utc("2020-01-01T00:00:00Z"), To: utc("2020-01-02T00:00:00Z")}
	gfsDay, err := idx.ListFiles(ctx, repository.FileQuery{TypeCode: "GFS", SiteShortName: "KOUN", Range: day})
	require.NoError(t, err)
	require.Len(t, gfsDay, 3, "the upper bound is exclusive")
	assert.True(t, gfsDay[0].InitTime.Equal(utc("2020-01-01T00:00:00Z")))
	assert.True(t, gfsDay[2].InitTime.Equal(utc("2020-01-01T12:00:00Z")))

	limited, err := idx.ListFiles(ctx, repository.FileQuery{TypeCode: "GFS", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := idx.ListFiles(ctx, repository.FileQuery{SiteShortName: "KXXX"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	none, err = idx.ListFiles(ctx, repository.FileQuery{Range: model.Since(utc("2030-01-01T00:00:00Z"))})
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := idx.FindByMetadata(ctx, "gfs", "koun", utc("2020-01-01T06:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2020010106Z_GFS_KOUN.buf.gz", got.FileName)

	_, err = idx.FindByMetadata(ctx, "GFS", "KOUN", utc("2020-01-01T03:00:00Z"))
	assert.True(t, exception.IsNotFound(err))
	_, err = idx.FindByMetadata(ctx, "RAP", "KOUN", utc("2020-01-01T06:00:00Z"))
	assert.True(t, exception.IsNotFound(err))

	latest, err := idx.MostRecent(ctx, "GFS", "KOUN")
	require.NoError(t, err)
	assert.True(t, latest.InitTime.Equal(utc("2020-01-02T00:00:00Z")))

	times, err := idx.InitTimes(ctx, "GFS", "KOUN")
	require.NoError(t, err)
	assert.Len(t, times, 4)

	names, err := idx.FileNames(ctx)
	require.NoError(t, err)
	require.Len(t, names, 5)
	assert.Equal(t, "2020010100Z_GFS_KOUN.buf.gz", names[0])

	types, err := idx.TypesForSite(ctx, "KOUN")
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "GFS", types[0].Code)
	assert.Equal(t, "NAM", types[1].Code)
}

func TestIngest_DuplicateRollsBackDimensions(t *testing.T) {
	ctx := context.Background()
	idx, conn := newIndexWithConn(t)

	_, err := idx.Ingest(ctx, entryAt(t, "2020-01-01T00:00:00Z"))
	require.NoError(t, err)

	dup := entryAt(t, "2020-01-01T00:00:00Z")
	dup.FileName = "renamed.buf.gz"
	dup.Site = model.NewSite("KOUN")
	dup.Location.ElevationMeters = nil
	_, err = idx.Ingest(ctx, dup)
	require.Error(t, err)
	assert.True(t, exception.IsDuplicateKey(err))

	var locations int64
	require.NoError(t, conn.GetGormDB().Table("locations").Count(&locations).Error)
	assert.Equal(t, int64(1), locations, "the location of the failed ingest was rolled back")
}

func TestDeleteFile(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	stored, err := idx.Ingest(ctx, entryAt(t, "2020-01-01T00:00:00Z"))
	require.NoError(t, err)

	require.NoError(t, idx.DeleteFile(ctx, stored.FileName))
	_, err = idx.FindByFileName(ctx, stored.FileName)
	assert.True(t, exception.IsNotFound(err))

	err = idx.DeleteFile(ctx, stored.FileName)
	assert.True(t, exception.IsNotFound(err), "got %v", err)

	_, err = idx.Ingest(ctx, entryAt(t, "2020-01-01T00:00:00Z"))
	assert.NoError(t, err, "the key is free again after deletion")
}

func TestInventory(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	for _, h := range []int{0, 6, 24, 30, 42} {
		init := utc("2020-01-01T00:00:00Z").Add(time.Duration(h) * time.Hour)
		_, err := idx.Ingest(ctx, entryAt(t, init.Format(time.RFC3339)))
		require.NoError(t, err)
	}
	raob := entryAt(t, "2020-01-01T00:00:00Z")
	raob.Type = model.NewSoundingType("RAOB", "BUFR", 0, true)
	raob.Location.ElevationMeters = nil
	_, err := idx.Ingest(ctx, raob)
	require.NoError(t, err)

	inv, err := idx.Inventory(ctx, "koun")
	require.NoError(t, err)
	assert.Equal(t, "KOUN", inv.Site.ShortName)
	require.Len(t, inv.Types, 2)

	g, ok := inv.ForType("GFS")
	require.True(t, ok)
	assert.True(t, g.First.Equal(utc("2020-01-01T00:00:00Z")))
	assert.True(t, g.Last.Equal(utc("2020-01-02T18:00:00Z")))
	require.Len(t, g.Missing, 2)
	assert.True(t, g.Missing[0].Start.Equal(utc("2020-01-01T12:00:00Z")))
	assert.True(t, g.Missing[0].End.Equal(utc("2020-01-01T18:00:00Z")))
	assert.True(t, g.Missing[1].Start.Equal(utc("2020-01-02T12:00:00Z")))
	assert.True(t, g.Missing[1].End.Equal(utc("2020-01-02T12:00:00Z")))

	r, ok := inv.ForType("RAOB")
	require.True(t, ok)
	assert.Empty(t, r.Missing, "no interval, no gaps")
	require.Len(t, r.Locations, 1)
	assert.Nil(t, r.Locations[0].ElevationMeters)

	_, err = idx.Inventory(ctx, "NOPE")
	assert.True(t, exception.IsNotFound(err))
}

func TestIngest_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
		others    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := entryAt(t, "2020-01-01T00:00:00Z")
			e.FileName = fmt.Sprintf("worker-%d.buf.gz", i)
			_, err := idx.Ingest(ctx, e)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case exception.IsDuplicateKey(err):
				dupes++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, dupes)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOuterTransaction(t *testing.T) {
	conn := testutil.NewMigratedSQLiteConnection(t)
	resolver := testutil.NewTestSingleConnectionResolver(conn)
	tm := gormadapter.NewGormTransactionManager(resolver, testutil.TestIndexName)
	idx := sqlrepo.NewSQLArchiveIndex(resolver, tm, testutil.TestIndexName)

	outer, err := tm.Begin(context.Background())
	require.NoError(t, err)
	ctx := tx.WithTx(context.Background(), outer)

	stored, err := idx.Ingest(ctx, entryAt(t, "2020-01-01T00:00:00Z"))
	require.NoError(t, err)

	dup := entryAt(t, "2020-01-01T00:00:00Z")
	dup.FileName = "dup.buf.gz"
	_, err = idx.Ingest(ctx, dup)
	require.True(t, exception.IsDuplicateKey(err))

	// The failed statement was undone at its savepoint; the outer transaction goes on.
	_, err = idx.FindByFileName(ctx, stored.FileName)
	require.NoError(t, err)
	require.NoError(t, tm.Rollback(outer))

	_, err = idx.FindByFileName(context.Background(), stored.FileName)
	assert.True(t, exception.IsNotFound(err), "rolling back the outer transaction discards the ingest")
}

func TestRegisterFile_SavepointInContext(t *testing.T) {
	mockTx := new(testutil.MockTx)
	mockTx.On("Savepoint", mock.AnythingOfType("string")).Return(nil)
	mockTx.On("ExecuteUpdate", mock.Anything, mock.AnythingOfType("*sql.FileEntity"), "CREATE", "files", mock.Anything).
		Return(int64(0), errors.New("UNIQUE constraint failed: files.file_name"))
	mockTx.On("ClassifyError", mock.Anything).Return(exception.KindDuplicateKey)
	mockTx.On("RollbackToSavepoint", mock.AnythingOfType("string")).Return(nil)
	mockTx.On("ReleaseSavepoint", mock.AnythingOfType("string")).Return(nil)

	txManager := new(testutil.MockTxManager)
	idx := sqlrepo.NewSQLArchiveIndex(&testutil.MockDBConnectionResolver{}, txManager, testutil.TestIndexName)

	init := utc("2020-01-01T00:00:00Z")
	err := idx.RegisterFile(tx.WithTx(context.Background(), mockTx), model.FileRecord{
		TypeID: 1, SiteID: 1, LocationID: 1, InitTime: init, EndTime: init, FileName: "a.buf.gz",
	})
	require.Error(t, err)
	assert.True(t, exception.IsDuplicateKey(err))
	mockTx.AssertExpectations(t)
	txManager.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything)
}

func TestRegisterFile_ReleasesSavepointOnSuccess(t *testing.T) {
	var created, released string
	mockTx := new(testutil.MockTx)
	mockTx.On("Savepoint", mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
		created = args.String(0)
	}).Return(nil)
	mockTx.On("ExecuteUpdate", mock.Anything, mock.AnythingOfType("*sql.FileEntity"), "CREATE", "files", mock.Anything).
		Return(int64(1), nil)
	mockTx.On("ReleaseSavepoint", mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
		released = args.String(0)
	}).Return(nil)

	idx := sqlrepo.NewSQLArchiveIndex(&testutil.MockDBConnectionResolver{}, new(testutil.MockTxManager), testutil.TestIndexName)

	init := utc("2020-01-01T00:00:00Z")
	ctx := tx.WithTx(context.Background(), mockTx)
	for _, name := range []string{"a.buf.gz", "b.buf.gz"} {
		require.NoError(t, idx.RegisterFile(ctx, model.FileRecord{
			TypeID: 1, SiteID: 1, LocationID: 1, InitTime: init, EndTime: init, FileName: name,
		}))
		assert.NotEmpty(t, created)
		assert.Equal(t, created, released)
	}
	mockTx.AssertNumberOfCalls(t, "Savepoint", 2)
	mockTx.AssertNumberOfCalls(t, "ReleaseSavepoint", 2)
	mockTx.AssertNotCalled(t, "RollbackToSavepoint", mock.Anything)
}

func TestRegisterFile_ReleaseFailure(t *testing.T) {
	mockTx := new(testutil.MockTx)
	mockTx.On("Savepoint", mock.AnythingOfType("string")).Return(nil)
	mockTx.On("ExecuteUpdate", mock.Anything, mock.AnythingOfType("*sql.FileEntity"), "CREATE", "files", mock.Anything).
		Return(int64(1), nil)
	mockTx.On("ReleaseSavepoint", mock.AnythingOfType("string")).Return(errors.New("database is locked"))
	mockTx.On("ClassifyError", mock.Anything).Return(exception.KindStoreUnavailable)

	idx := sqlrepo.NewSQLArchiveIndex(&testutil.MockDBConnectionResolver{}, new(testutil.MockTxManager), testutil.TestIndexName)

	init := utc("2020-01-01T00:00:00Z")
	err := idx.RegisterFile(tx.WithTx(context.Background(), mockTx), model.FileRecord{
		TypeID: 1, SiteID: 1, LocationID: 1, InitTime: init, EndTime: init, FileName: "a.buf.gz",
	})
	assert.True(t, exception.IsStoreUnavailable(err), "got %v", err)
}

func TestStoreUnavailable(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: gormadapter.NewGormLogger("SILENT"), SkipDefaultTransaction: true})
	require.NoError(t, err)
	conn, err := gormadapter.NewGormDBAdapter(gormDB, dbconfig.DatabaseConfig{Type: "mysql"}, testutil.TestIndexName)
	require.NoError(t, err)

	resolver := testutil.NewTestSingleConnectionResolver(conn)
	idx := sqlrepo.NewSQLArchiveIndex(resolver, gormadapter.NewGormTransactionManager(resolver, testutil.TestIndexName), testutil.TestIndexName)

	sqlMock.ExpectBegin().WillReturnError(errors.New("connection refused"))
	err = idx.DeleteFile(context.Background(), "a.buf.gz")
	require.Error(t, err)
	assert.True(t, exception.IsStoreUnavailable(err), "got %v", err)

	sqlMock.ExpectQuery("SELECT count\\(\\*\\) FROM `files`").WillReturnError(errors.New("server has gone away"))
	_, err = idx.Count(context.Background())
	assert.True(t, exception.IsStoreUnavailable(err))

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestResolverFailure(t *testing.T) {
	resolver := &testutil.MockDBConnectionResolver{}
	resolver.On("ResolveConnection", mock.Anything, testutil.TestIndexName).Return(nil, errors.New("no such connection"))
	idx := sqlrepo.NewSQLArchiveIndex(resolver, new(testutil.MockTxManager), testutil.TestIndexName)

	_, err := idx.Sites(context.Background())
	assert.True(t, exception.IsStoreUnavailable(err))
}
