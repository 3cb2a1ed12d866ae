// Package config holds the settings of a named database connection.
package config

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string `yaml:"type"`     // "sqlite", "postgres" or "mysql".
	Host     string `yaml:"host"`     // Database host address.
	Port     int    `yaml:"port"`     // Database port number.
	Database string `yaml:"database"` // Database name, or the file path for SQLite.
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Schema   string `yaml:"schema,omitempty"` // PostgreSQL search_path.
	Sslmode  string `yaml:"sslmode"`
	// BusyTimeoutMillis is how long SQLite waits on a locked database before failing.
	BusyTimeoutMillis int        `yaml:"busy_timeout_millis"`
	Pool              PoolConfig `yaml:"pool"`
	// LogLevel is the SQL log level for this connection ("SILENT", "ERROR", "WARN", "INFO").
	LogLevel string `yaml:"log_level"`
}
