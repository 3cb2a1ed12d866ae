// Package postgres provides the gorm DBProvider for PostgreSQL databases.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
)

// DBType is the configuration type handled by this package.
const DBType = "postgres"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return postgres.Open(ConnectionString(cfg)), nil
	})
	gormadapter.RegisterErrorClassifier(DBType, ClassifyError)
}

// PostgresDBProvider implements database.DBProvider for PostgreSQL.
type PostgresDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString generates the keyword/value DSN expected by gorm.io/driver/postgres.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	sslmode := c.Sslmode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

// NewProvider creates the PostgreSQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &PostgresDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, DBType)}
}
