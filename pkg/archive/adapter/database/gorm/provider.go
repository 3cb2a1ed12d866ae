// Package gorm implements the database adapter on top of gorm.io/gorm. Dialects register
// themselves from the sqlite, postgres and mysql sub-packages.
package gorm

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	config "github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/configbinder"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a dbconfig.DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory for dbType.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// LookupDatabaseConfig decodes the named entry under adapter.database.
func LookupDatabaseConfig(cfg *config.Config, name string) (dbconfig.DatabaseConfig, error) {
	var dbConfig dbconfig.DatabaseConfig
	found, err := configbinder.BindSection(cfg.AdapterSection("database"), name, &dbConfig)
	if err != nil {
		return dbConfig, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	if !found {
		return dbConfig, fmt.Errorf("database configuration '%s' not found under adapter.database", name)
	}
	return dbConfig, nil
}

// BaseProvider implements the connection caching shared by every dialect provider.
type BaseProvider struct {
	cfg         *config.Config
	dbType      string
	connections map[string]database.DBConnection
	mu          sync.RWMutex
}

// NewBaseProvider creates a new BaseProvider.
func NewBaseProvider(cfg *config.Config, dbType string) *BaseProvider {
	return &BaseProvider{
		cfg:         cfg,
		dbType:      dbType,
		connections: make(map[string]database.DBConnection),
	}
}

// Type returns the database type.
func (p *BaseProvider) Type() string {
	return p.dbType
}

// GetConnection retrieves an existing connection or establishes a new one.
func (p *BaseProvider) GetConnection(name string) (database.DBConnection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double check (DCL)
	if conn, ok = p.connections[name]; ok {
		return conn, nil
	}
	return p.createAndStoreConnection(name)
}

func (p *BaseProvider) createAndStoreConnection(name string) (database.DBConnection, error) {
	dbConfig, err := LookupDatabaseConfig(p.cfg, name)
	if err != nil {
		return nil, err
	}
	if dbConfig.Type != p.dbType {
		return nil, fmt.Errorf("provider type mismatch: expected '%s', got '%s' for connection '%s'", p.dbType, dbConfig.Type, name)
	}

	gormDB, err := Open(dbConfig, p.sqlLogLevel(dbConfig))
	if err != nil {
		return nil, err
	}

	conn, err := NewGormDBAdapter(gormDB, dbConfig, name)
	if err != nil {
		return nil, err
	}
	p.connections[name] = conn
	logger.Infof("Established new DB connection: %s (%s)", name, p.dbType)
	return conn, nil
}

func (p *BaseProvider) sqlLogLevel(dbConfig dbconfig.DatabaseConfig) string {
	if dbConfig.LogLevel != "" {
		return dbConfig.LogLevel
	}
	if p.cfg != nil && p.cfg.Soundings.System.Logging.SQLLevel != "" {
		return p.cfg.Soundings.System.Logging.SQLLevel
	}
	return string(config.LogLevelSilent)
}

// ForceReconnect closes the named connection, if open, and establishes a new one.
func (p *BaseProvider) ForceReconnect(name string) (database.DBConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existingConn, ok := p.connections[name]; ok {
		if err := existingConn.Close(); err != nil {
			logger.Warnf("Failed to close existing connection '%s' before reconnect: %v", name, err)
		}
		delete(p.connections, name)
	}

	conn, err := p.createAndStoreConnection(name)
	if err != nil {
		return nil, err
	}
	logger.Infof("Re-established DB connection: %s (%s)", name, p.dbType)
	return conn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *BaseProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close connection '%s': %v", name, err)
			result = multierror.Append(result, fmt.Errorf("close %s: %w", name, err))
		}
		delete(p.connections, name)
	}
	return result.ErrorOrNil()
}

// Open creates a gorm.DB for dbConfig using the registered dialector and applies the pool settings.
func Open(dbConfig dbconfig.DatabaseConfig, sqlLogLevel string) (*gorm.DB, error) {
	dialectorFactory, err := GetDialectorFactory(dbConfig.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := dialectorFactory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialector for %s: %w", dbConfig.Type, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 NewGormLogger(sqlLogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if dbConfig.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	}
	if dbConfig.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	}
	if dbConfig.Pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.Pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}
