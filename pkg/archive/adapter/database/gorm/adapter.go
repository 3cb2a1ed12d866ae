package gorm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// GormDBAdapter implements database.DBConnection.
type GormDBAdapter struct {
	executor
	sqlDB *sql.DB
	cfg   dbconfig.DatabaseConfig
	name  string
}

// NewGormDBAdapter wraps db as the connection named name. Writes issued directly on the
// adapter skip gorm's implicit transaction; multi-statement writes use a TransactionManager.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) (*GormDBAdapter, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB for '%s': %w", name, err)
	}
	return &GormDBAdapter{
		executor: executor{
			db:     db.Session(&gorm.Session{SkipDefaultTransaction: true}),
			dbType: cfg.Type,
		},
		sqlDB: sqlDB,
		cfg:   cfg,
		name:  name,
	}, nil
}

// GetGormDB returns the underlying *gorm.DB. Only the adapter layer should use it.
func (a *GormDBAdapter) GetGormDB() *gorm.DB {
	return a.db
}

func (a *GormDBAdapter) Close() error {
	if a.sqlDB != nil {
		logger.Infof("Closing database connection '%s'...", a.name)
		return a.sqlDB.Close()
	}
	return nil
}

func (a *GormDBAdapter) Type() string {
	return a.dbType
}

func (a *GormDBAdapter) Name() string {
	return a.name
}

// RefreshConnection implements database.DBConnection.
func (a *GormDBAdapter) RefreshConnection(ctx context.Context) error {
	if a.sqlDB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	return a.sqlDB.PingContext(ctx)
}

// Config implements database.DBConnection.
func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig {
	return a.cfg
}

// GetSQLDB implements database.DBConnection.
func (a *GormDBAdapter) GetSQLDB() (*sql.DB, error) {
	if a.sqlDB == nil {
		return nil, fmt.Errorf("underlying sql.DB is nil")
	}
	return a.sqlDB, nil
}

// IsTableNotExistError implements database.DBConnection.
func (a *GormDBAdapter) IsTableNotExistError(err error) bool {
	return isTableNotExistError(err)
}

func isTableNotExistError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return (strings.Contains(errMsg, "relation \"") && strings.Contains(errMsg, "\" does not exist")) || // PostgreSQL
		(strings.Contains(errMsg, "Error 1146") && strings.Contains(errMsg, "doesn't exist")) || // MySQL
		strings.Contains(errMsg, "no such table:") // SQLite
}

var _ database.DBConnection = (*GormDBAdapter)(nil)
