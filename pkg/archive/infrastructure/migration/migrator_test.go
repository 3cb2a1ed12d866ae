package migration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	"github.com/tigerroll/soundings/pkg/archive/infrastructure/migration"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	testutil "github.com/tigerroll/soundings/pkg/archive/test"
)

func newSchemaManager() *migration.SchemaManager {
	return migration.NewSchemaManager(migration.NewMigratorProvider(), migration.ProvideIndexMigrationsFS(), "")
}

func indexNames(t *testing.T, conn *gormadapter.GormDBAdapter) map[string]bool {
	t.Helper()
	var names []string
	require.NoError(t, conn.GetGormDB().
		Raw("SELECT name FROM sqlite_master WHERE type = 'index' AND name NOT LIKE 'sqlite_%'").
		Scan(&names).Error)
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func TestSchemaManager_ApplySQLite(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewSQLiteConnection(t)
	schema := newSchemaManager()

	require.NoError(t, schema.Apply(ctx, conn))

	db := conn.GetGormDB()
	for _, table := range []string{"types", "sites", "locations", "files"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
	assert.True(t, db.Migrator().HasTable(migration.DefaultMigrationsTable))

	idx := indexNames(t, conn)
	for _, name := range []string{
		"files_file_name_idx",
		"files_type_site_init_idx",
		"locations_coords_idx",
		"locations_coords_no_elev_idx",
		"files_site_init_idx",
	} {
		assert.True(t, idx[name], "index %s", name)
	}

	v, dirty, err := schema.Version(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	// A second run finds nothing to apply and must leave the pool open.
	require.NoError(t, schema.Apply(ctx, conn))
	require.NoError(t, conn.RefreshConnection(ctx))
}

func TestSchemaManager_DropAndVersion(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewSQLiteConnection(t)
	schema := newSchemaManager()

	v, _, err := schema.Version(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v, "fresh database has no version")

	require.NoError(t, schema.Apply(ctx, conn))
	require.NoError(t, schema.Drop(ctx, conn))
	assert.False(t, conn.GetGormDB().Migrator().HasTable("files"))
}

func TestSchemaManager_NullElevationIsUnique(t *testing.T) {
	conn := testutil.NewMigratedSQLiteConnection(t)
	db := conn.GetGormDB()

	require.NoError(t, db.Exec("INSERT INTO locations (latitude, longitude) VALUES (35180000, -97440000)").Error)
	err := db.Exec("INSERT INTO locations (latitude, longitude) VALUES (35180000, -97440000)").Error
	require.Error(t, err)
	assert.Equal(t, exception.KindDuplicateKey, conn.ClassifyError(err))

	require.NoError(t, db.Exec("INSERT INTO locations (latitude, longitude, elevation_meters) VALUES (35180000, -97440000, 357)").Error)
}

func TestSchemaManager_CancelledContext(t *testing.T) {
	conn := testutil.NewSQLiteConnection(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newSchemaManager().Apply(ctx, conn)
	require.Error(t, err)
	assert.True(t, exception.IsStoreUnavailable(err))
}

func TestSchemaManager_UnsupportedEngine(t *testing.T) {
	conn := testutil.NewSQLiteConnection(t)
	m := migration.NewMigrator(&renamedConnection{GormDBAdapter: conn, dbType: "oracle"})

	err := m.Up(context.Background(), migration.ProvideIndexMigrationsFS(), "sqlite", migration.DefaultMigrationsTable)
	require.Error(t, err)
	assert.True(t, exception.IsStoreUnavailable(err))
}

type renamedConnection struct {
	*gormadapter.GormDBAdapter
	dbType string
}

func (r *renamedConnection) Type() string { return r.dbType }
