// Package sqlite provides the gorm DBProvider for SQLite databases.
package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tigerroll/soundings/pkg/archive/adapter/database"
	dbconfig "github.com/tigerroll/soundings/pkg/archive/adapter/database/config"
	gormadapter "github.com/tigerroll/soundings/pkg/archive/adapter/database/gorm"
	"github.com/tigerroll/soundings/pkg/archive/core/config"
)

// DBType is the configuration type handled by this package.
const DBType = "sqlite"

// DefaultBusyTimeoutMillis is used when the configuration leaves busy_timeout_millis unset.
const DefaultBusyTimeoutMillis = 5000

func init() {
	gormadapter.RegisterDialector(DBType, func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		if err := ensureDir(cfg.Database); err != nil {
			return nil, err
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
	gormadapter.RegisterErrorClassifier(DBType, ClassifyError)
}

// SQLiteDBProvider implements database.DBProvider for SQLite files.
type SQLiteDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString builds the go-sqlite3 DSN: foreign keys enforced, transactions taking
// the write lock at BEGIN, a busy timeout so concurrent writers wait for that lock instead
// of failing at once, and WAL journaling so readers are not blocked by a writer.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	busy := c.BusyTimeoutMillis
	if busy <= 0 {
		busy = DefaultBusyTimeoutMillis
	}
	sep := "?"
	if strings.Contains(c.Database, "?") {
		sep = "&"
	}
	params := fmt.Sprintf("_foreign_keys=on&_txlock=immediate&_busy_timeout=%d", busy)
	if !isMemory(c.Database) {
		params += "&_journal_mode=WAL"
	}
	return c.Database + sep + params
}

// isMemory reports whether path names an in-memory database.
func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// ensureDir creates the directory holding the database file, so a fresh archive root can be
// opened without preparing it first.
func ensureDir(path string) error {
	if isMemory(path) {
		return nil
	}
	file := strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(file, '?'); i >= 0 {
		file = file[:i]
	}
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory for SQLite database '%s': %w", path, err)
	}
	return nil
}

// NewProvider creates the SQLite DBProvider.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &SQLiteDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, DBType)}
}
