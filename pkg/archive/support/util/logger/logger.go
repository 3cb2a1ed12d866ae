// Package logger provides the level-filtered logger used across the sounding archive.
// It wraps the standard `log` package; messages below the configured level are dropped.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
)

// LogLevel is a type representing the logging level.
type LogLevel int32

const (
	// LevelDebug enables everything, including per-object storage traces.
	LevelDebug LogLevel = iota
	// LevelInfo is the default level.
	LevelInfo
	// LevelWarn reports recoverable problems such as a payload that could not be cleaned up.
	LevelWarn
	// LevelError reports failed operations.
	LevelError
	// LevelFatal is only used by Fatalf.
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// current holds the active level. Reads happen on every log call, so it is atomic.
var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// ParseLevel converts a level name (case-insensitive) into a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL", "SILENT":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// SetLogLevel sets the global log level.
// Unknown values fall back to INFO and a warning is written.
func SetLogLevel(level string) {
	parsed, err := ParseLevel(level)
	if err != nil {
		log.Printf("[WARN] %v, defaulting to INFO", err)
	}
	current.Store(int32(parsed))
}

// Level returns the active log level.
func Level() LogLevel {
	return LogLevel(current.Load())
}

// SetOutput redirects log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Enabled reports whether messages at the given level are written.
func Enabled(level LogLevel) bool {
	return Level() <= level
}

func logf(level LogLevel, format string, v ...interface{}) {
	if Enabled(level) {
		log.Printf("["+level.String()+"] "+format, v...)
	}
}

// Debugf formats and outputs a DEBUG level message.
func Debugf(format string, v ...interface{}) {
	logf(LevelDebug, format, v...)
}

// Infof formats and outputs an INFO level message.
func Infof(format string, v ...interface{}) {
	logf(LevelInfo, format, v...)
}

// Warnf formats and outputs a WARN level message.
func Warnf(format string, v ...interface{}) {
	logf(LevelWarn, format, v...)
}

// Errorf formats and outputs an ERROR level message.
func Errorf(format string, v ...interface{}) {
	logf(LevelError, format, v...)
}

// Fatalf outputs a FATAL message and terminates the program with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
