package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	_ "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm/sqlite"
	"github.com/tigerroll/soundings/pkg/archive/infrastructure/migration"
	sqlrepo "github.com/tigerroll/soundings/pkg/archive/infrastructure/repository/sql"
)

// TestIndexName is the connection name used by the SQLite test helpers.
const TestIndexName = "index"

// NewSQLiteConnection opens an empty SQLite index file in a temporary directory.
// The connection is closed when the test ends.
func NewSQLiteConnection(t testing.TB) *gormadapter.GormDBAdapter {
	t.Helper()
	cfg := dbconfig.DatabaseConfig{
		Type:     "sqlite",
		Database: filepath.Join(t.TempDir(), "index.sqlite"),
	}
	db, err := gormadapter.Open(cfg, "SILENT")
	require.NoError(t, err)

	conn, err := gormadapter.NewGormDBAdapter(db, cfg, TestIndexName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// NewMigratedSQLiteConnection opens a SQLite index file with the current schema applied.
func NewMigratedSQLiteConnection(t testing.TB) *gormadapter.GormDBAdapter {
	t.Helper()
	conn := NewSQLiteConnection(t)
	ApplySchema(t, conn)
	return conn
}

// ApplySchema migrates conn to the latest index schema.
func ApplySchema(t testing.TB, conn database.DBConnection) {
	t.Helper()
	schema := migration.NewSchemaManager(migration.NewMigratorProvider(), migration.ProvideIndexMigrationsFS(), "")
	require.NoError(t, schema.Apply(context.Background(), conn))
}

// NewSQLiteIndex returns an archive index backed by a migrated SQLite file.
func NewSQLiteIndex(t testing.TB) *sqlrepo.SQLArchiveIndex {
	t.Helper()
	resolver := NewTestSingleConnectionResolver(NewMigratedSQLiteConnection(t))
	return sqlrepo.NewSQLArchiveIndex(resolver, gormadapter.NewGormTransactionManager(resolver, TestIndexName), TestIndexName)
}
