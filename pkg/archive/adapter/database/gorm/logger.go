package gorm

import (
	"fmt"
	"strings"
	"time"

	gorm_logger "gorm.io/gorm/logger"

	config "github.com/tigerroll/soundings/pkg/archive/core/config"
	"github.com/tigerroll/soundings/pkg/archive/support/util/logger"
)

// NewGormLogger creates a gorm logger writing through the archive logger.
// Unknown levels are treated as SILENT.
func NewGormLogger(level string) gorm_logger.Interface {
	var gormLevel gorm_logger.LogLevel
	switch config.LogLevel(strings.ToUpper(level)) {
	case config.LogLevelError:
		gormLevel = gorm_logger.Error
	case config.LogLevelWarn:
		gormLevel = gorm_logger.Warn
	case config.LogLevelInfo, config.LogLevelDebug:
		gormLevel = gorm_logger.Info
	default:
		gormLevel = gorm_logger.Silent
	}

	return gorm_logger.New(
		NewGormWriter(),
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects gorm output to the archive logger.
type GormWriter struct{}

// NewGormWriter creates a new instance of GormWriter.
func NewGormWriter() *GormWriter {
	return &GormWriter{}
}

// Printf implements gorm_logger.Writer. Statement traces go to DEBUG, everything else to INFO.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if isStatementTrace(msg) {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Infof("[GORM] %s", msg)
}

func isStatementTrace(msg string) bool {
	if !strings.Contains(msg, "[") || !strings.Contains(msg, "]") {
		return false
	}
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "SAVEPOINT"} {
		if strings.Contains(msg, verb) {
			return true
		}
	}
	return false
}
