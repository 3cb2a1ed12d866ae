package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

const (
	commandUp   = "up"
	commandDown = "down"
)

// migratorImpl implements Migrator on top of a DBConnection.
type migratorImpl struct {
	dbConn database.DBConnection
	dbType string
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(dbConn database.DBConnection) Migrator {
	return &migratorImpl{
		dbConn: dbConn,
		dbType: dbConn.Type(),
	}
}

// session bundles a migrate instance with the resources it borrowed.
type session struct {
	m       *migrate.Migrate
	release func()
}

// getDatabaseDriver returns a migrate driver for the connection's engine.
// The release function frees what the driver holds without closing the shared pool:
// postgres and mysql get a dedicated *sql.Conn, sqlite works on the pool directly
// and its driver Close would close the pool.
func (m *migratorImpl) getDatabaseDriver(ctx context.Context, sqlDB *sql.DB, tableName string) (migratedb.Driver, func() error, error) {
	switch m.dbType {
	case "postgres":
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		drv, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: tableName})
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return drv, drv.Close, nil
	case "mysql":
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		drv, err := mysql.WithConnection(ctx, conn, &mysql.Config{MigrationsTable: tableName})
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return drv, drv.Close, nil
	case "sqlite":
		drv, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{MigrationsTable: tableName})
		if err != nil {
			return nil, nil, err
		}
		return drv, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *migratorImpl) open(ctx context.Context, migrationFS fs.FS, path string, tableName string) (*session, error) {
	sqlDB, err := m.dbConn.GetSQLDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	var sourceDriver source.Driver
	sourceDriver, err = iofs.New(migrationFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver for path %s: %w", path, err)
	}

	dbDriver, releaseDB, err := m.getDatabaseDriver(ctx, sqlDB, tableName)
	if err != nil {
		_ = sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mInstance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		_ = sourceDriver.Close()
		_ = releaseDB()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &session{
		m: mInstance,
		release: func() {
			if err := sourceDriver.Close(); err != nil {
				logger.Warnf("Failed to close migration source: %v", err)
			}
			if err := releaseDB(); err != nil {
				logger.Warnf("Failed to release migration connection: %v", err)
			}
		},
	}, nil
}

func (m *migratorImpl) runMigration(ctx context.Context, migrationFS fs.FS, path string, command string, tableName string) error {
	const op = "migration.Run"
	if err := ctx.Err(); err != nil {
		return exception.New(op, exception.KindStoreUnavailable, "migration cancelled", err)
	}
	logger.Infof("Executing migration '%s' (DB: %s, Path: %s, Table: %s)", command, m.dbType, path, tableName)

	s, err := m.open(ctx, migrationFS, path, tableName)
	if err != nil {
		return exception.New(op, exception.KindStoreUnavailable, "failed to prepare migration", err)
	}
	defer s.release()

	stop := context.AfterFunc(ctx, func() {
		select {
		case s.m.GracefulStop <- true:
		default:
		}
	})
	defer stop()

	var migrateErr error
	switch command {
	case commandUp:
		migrateErr = s.m.Up()
	case commandDown:
		migrateErr = s.m.Down()
	default:
		return exception.InvalidArgument(op, "unsupported migration command: %s", command)
	}

	if migrateErr != nil && !errors.Is(migrateErr, migrate.ErrNoChange) {
		if v, dirty, versionErr := s.m.Version(); versionErr == nil {
			logger.Errorf("Migration '%s' failed at version %d (dirty: %t)", command, v, dirty)
		}
		return exception.Newf(op, exception.KindStoreUnavailable, migrateErr,
			"migration '%s' failed (DB: %s, Path: %s)", command, m.dbType, path)
	}

	logger.Infof("Migration '%s' completed successfully.", command)
	return nil
}

func (m *migratorImpl) Up(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, commandUp, tableName)
}

func (m *migratorImpl) Down(ctx context.Context, migrationFS fs.FS, path string, tableName string) error {
	return m.runMigration(ctx, migrationFS, path, commandDown, tableName)
}

func (m *migratorImpl) Version(ctx context.Context, migrationFS fs.FS, path string, tableName string) (uint, bool, error) {
	s, err := m.open(ctx, migrationFS, path, tableName)
	if err != nil {
		return 0, false, exception.New("migration.Version", exception.KindStoreUnavailable, "failed to prepare migration", err)
	}
	defer s.release()

	v, dirty, err := s.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, exception.New("migration.Version", exception.KindStoreUnavailable, "failed to read schema version", err)
	}
	return v, dirty, nil
}

// defaultMigratorProvider creates migratorImpl instances.
type defaultMigratorProvider struct{}

// NewMigratorProvider returns the default MigratorProvider.
func NewMigratorProvider() MigratorProvider {
	return defaultMigratorProvider{}
}

func (defaultMigratorProvider) NewMigrator(dbConn database.DBConnection) Migrator {
	return NewMigrator(dbConn)
}
