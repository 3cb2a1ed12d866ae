// Package migration applies the archive index schema with golang-migrate.
package migration

import (
	"context"
	"io/fs"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
)

// DefaultMigrationsTable tracks applied index schema versions when the configuration leaves it unset.
const DefaultMigrationsTable = "archive_index_migrations"

// Migrator handles database schema migrations.
type Migrator interface {
	// Up applies all pending migrations found under path in migrationFS.
	// tableName is the table used to track migration history.
	Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Down rolls back all applied migrations.
	Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error
	// Version reports the current schema version and whether the last migration left it dirty.
	// A database with no applied migration reports version 0.
	Version(ctx context.Context, migrationFS fs.FS, path string, tableName string) (version uint, dirty bool, err error)
}

// MigratorProvider is a factory for creating Migrator instances.
type MigratorProvider interface {
	NewMigrator(dbConn database.DBConnection) Migrator
}
