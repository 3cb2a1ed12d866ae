package migration

import (
	"context"
	"embed"
	"io/fs"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// Each dialect keeps its migrations in resource/<db type>.
//
//go:embed resource
var rawIndexMigrationFS embed.FS

// IndexMigrationsFSTag is the Fx tag for the embedded index schema filesystem.
const IndexMigrationsFSTag = `name:"indexMigrationsFS"`

// ProvideIndexMigrationsFS returns the embedded index migrations rooted at the dialect directories.
func ProvideIndexMigrationsFS() fs.FS {
	subFS, err := fs.Sub(rawIndexMigrationFS, "resource")
	if err != nil {
		logger.Fatalf("Failed to create subdirectory for index migration FS: %v", err)
	}
	return subFS
}

// SchemaManager applies the index schema to a connection, picking the migration set for its engine.
type SchemaManager struct {
	provider    MigratorProvider
	migrationFS fs.FS
	tableName   string
}

// NewSchemaManager creates a SchemaManager. An empty tableName falls back to DefaultMigrationsTable.
func NewSchemaManager(provider MigratorProvider, migrationFS fs.FS, tableName string) *SchemaManager {
	if tableName == "" {
		tableName = DefaultMigrationsTable
	}
	return &SchemaManager{provider: provider, migrationFS: migrationFS, tableName: tableName}
}

// NewSchemaManagerFromConfig wires a SchemaManager with the configured history table.
func NewSchemaManagerFromConfig(provider MigratorProvider, migrationFS fs.FS, cfg *config.IndexConfig) *SchemaManager {
	if cfg == nil {
		return NewSchemaManager(provider, migrationFS, "")
	}
	return NewSchemaManager(provider, migrationFS, cfg.MigrationsTable)
}

// Apply brings conn up to the latest schema version. Applying an up-to-date schema is a no-op.
func (s *SchemaManager) Apply(ctx context.Context, conn database.DBConnection) error {
	return s.provider.NewMigrator(conn).Up(ctx, s.migrationFS, conn.Type(), s.tableName)
}

// Drop rolls the schema back, removing every index table.
func (s *SchemaManager) Drop(ctx context.Context, conn database.DBConnection) error {
	return s.provider.NewMigrator(conn).Down(ctx, s.migrationFS, conn.Type(), s.tableName)
}

// Version reports the schema version of conn.
func (s *SchemaManager) Version(ctx context.Context, conn database.DBConnection) (uint, bool, error) {
	return s.provider.NewMigrator(conn).Version(ctx, s.migrationFS, conn.Type(), s.tableName)
}
