package log

import (
	"fmt"

	"github.com/kataras/golog"
)

// GologLogger implements Logger using kataras/golog.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps an existing golog.Logger.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	return &GologLogger{logger: logger}
}

// SetLevel maps a ragkit level onto the golog level.
func (l *GologLogger) SetLevel(level Level) {
	switch level {
	case LevelDebug:
		l.logger.SetLevel("debug")
	case LevelInfo:
		l.logger.SetLevel("info")
	case LevelWarn:
		l.logger.SetLevel("warn")
	case LevelError:
		l.logger.SetLevel("error")
	case LevelNone:
		l.logger.SetLevel("disable")
	}
}

// Debug logs debug messages.
func (l *GologLogger) Debug(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

// Info logs informational messages.
func (l *GologLogger) Info(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Warn logs warning messages.
func (l *GologLogger) Warn(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

// Error logs error messages.
func (l *GologLogger) Error(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
