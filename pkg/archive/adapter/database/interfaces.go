// Package database defines the database connection abstractions of the archive.
// Dialect specific implementations live in adapter/database/gorm and its sub-packages.
package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	coreAdapter "github.com/tigerroll/soundings/pkg/archive/core/adapter"
	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
)

// DBExecutor is the set of data operations shared by a connection and a transaction.
type DBExecutor = tx.TxExecutor

// DBConnection represents a named database connection.
type DBConnection interface {
	coreAdapter.ResourceConnection // Type(), Name(), Close()
	DBExecutor

	// IsTableNotExistError reports whether err means a table is missing.
	IsTableNotExistError(err error) bool
	// RefreshConnection pings the pool, re-validating the connection.
	RefreshConnection(ctx context.Context) error
	// Config returns the settings the connection was opened with.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB.
	GetSQLDB() (*sql.DB, error)
}

// DBConnectionResolver resolves a live database connection by name.
type DBConnectionResolver interface {
	coreAdapter.ResourceConnectionResolver

	// ResolveDBConnection returns the named connection, reconnecting if it no longer answers a ping.
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProvider opens and caches connections of a single database type.
type DBProvider interface {
	// GetConnection retrieves a database connection with the specified name.
	GetConnection(name string) (DBConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the database type handled by this provider (e.g., "sqlite").
	Type() string
	// ForceReconnect closes and re-opens the named connection.
	ForceReconnect(name string) (DBConnection, error)
}

// DBProviderGroup is the Fx value group collecting every DBProvider.
const DBProviderGroup = "db_providers"
