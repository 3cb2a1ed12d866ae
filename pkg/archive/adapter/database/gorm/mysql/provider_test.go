package mysql_test

import (
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	"github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm/mysql"
)

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  dbconfig.DatabaseConfig
		want string
	}{
		{
			name: "with credentials",
			cfg:  dbconfig.DatabaseConfig{Host: "db", Port: 3306, Database: "soundings", User: "archive", Password: "secret"},
			want: "archive:secret@tcp(db:3306)/soundings?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		},
		{
			name: "user without password",
			cfg:  dbconfig.DatabaseConfig{Host: "localhost", Port: 3307, Database: "idx", User: "root"},
			want: "root@tcp(localhost:3307)/idx?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		},
		{
			name: "anonymous",
			cfg:  dbconfig.DatabaseConfig{Host: "localhost", Port: 3306, Database: "idx"},
			want: "tcp(localhost:3306)/idx?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mysql.ConnectionString(tt.cfg))
		})
	}
}

func TestConnectionString_AllowsMultiStatementMigrations(t *testing.T) {
	dsn := mysql.ConnectionString(dbconfig.DatabaseConfig{Host: "db", Port: 3306, Database: "soundings", User: "archive"})

	parsed, err := driver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, parsed.MultiStatements)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "soundings", parsed.DBName)
	assert.Equal(t, "db:3306", parsed.Addr)
}
