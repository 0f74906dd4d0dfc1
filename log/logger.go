package log

import (
	"io"
	"log"
	"os"
)

// Level represents logging severity.
type Level int

const (
	// LevelDebug for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo for general informational messages
	LevelInfo
	// LevelWarn for warning messages
	LevelWarn
	// LevelError for error messages
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// Logger is the logging interface used throughout ragkit.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// StdLogger implements Logger on Go's standard log package.
type StdLogger struct {
	logger *log.Logger
	level  Level
}

// NewStdLogger creates a logger writing to stderr.
func NewStdLogger(level Level) *StdLogger {
	return NewStdLoggerTo(os.Stderr, level)
}

// NewStdLoggerTo creates a logger with a custom output.
func NewStdLoggerTo(out io.Writer, level Level) *StdLogger {
	return &StdLogger{
		logger: log.New(out, "[ragkit] ", log.LstdFlags),
		level:  level,
	}
}

func (l *StdLogger) logf(at Level, tag, format string, v ...any) {
	if l.level <= at {
		l.logger.Printf(tag+" "+format, v...)
	}
}

// Debug logs debug messages.
func (l *StdLogger) Debug(format string, v ...any) { l.logf(LevelDebug, "[DEBUG]", format, v...) }

// Info logs informational messages.
func (l *StdLogger) Info(format string, v ...any) { l.logf(LevelInfo, "[INFO]", format, v...) }

// Warn logs warning messages.
func (l *StdLogger) Warn(format string, v ...any) { l.logf(LevelWarn, "[WARN]", format, v...) }

// Error logs error messages.
func (l *StdLogger) Error(format string, v ...any) { l.logf(LevelError, "[ERROR]", format, v...) }

// NopLogger discards everything.
type NopLogger struct{}

// Debug does nothing.
func (NopLogger) Debug(format string, v ...any) {}

// Info does nothing.
func (NopLogger) Info(format string, v ...any) {}

// Warn does nothing.
func (NopLogger) Warn(format string, v ...any) {}

// Error does nothing.
func (NopLogger) Error(format string, v ...any) {}

// Package-level logger, info level by default.
var defaultLogger Logger = NewStdLogger(LevelInfo)

// SetDefaultLogger replaces the package-level logger, so callers can enable
// logging globally without threading logger objects around.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the current package-level logger.
func GetDefaultLogger() Logger {
	return defaultLogger
}
