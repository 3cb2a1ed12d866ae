// Package mysql provides the gorm DBProvider for MySQL databases.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
)

// DBType is the configuration type handled by this package.
const DBType = "mysql"

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
	gormadapter.RegisterErrorClassifier(DBType, ClassifyError)
}

// MySQLDBProvider implements database.DBProvider for MySQL.
type MySQLDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString generates the go-sql-driver DSN, e.g.
// user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true.
// Migration files hold several statements and golang-migrate sends each file in one Exec.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	var authPart string
	if c.User != "" {
		authPart = c.User
		if c.Password != "" {
			authPart = fmt.Sprintf("%s:%s", c.User, c.Password)
		}
		authPart += "@"
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		authPart, c.Host, c.Port, c.Database)
}

// NewProvider creates the MySQL DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &MySQLDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, DBType)}
}
