package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	// globalLogger holds the process logger, built once from config.
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. The first call decides level and
// format; later calls return the same instance.
func Get(level, format string) *Logger {
	once.Do(func() {
		globalLogger = New(level, format)
	})
	return globalLogger
}

// New builds an independent logger, e.g. for tests.
func New(level, format string) *Logger {
	return newZapLogger(level, format)
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}
