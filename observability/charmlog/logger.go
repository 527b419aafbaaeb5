// Package charmlog backs core.Logger with github.com/charmbracelet/log.
package charmlog

import (
	"io"

	"github.com/Swind/go-thread/core"
	"github.com/charmbracelet/log"
)

// Logger adapts a *log.Logger to core.Logger. Fields become key/value pairs.
type Logger struct {
	l *log.Logger
}

var _ core.Logger = (*Logger)(nil)

// New wraps l. A nil l uses the charmbracelet default logger.
func New(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{l: l}
}

// NewWriter creates a Logger writing to w at the given level
// ("debug", "info", "warn", "error").
func NewWriter(w io.Writer, level string) (*Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "thread",
	})
	return &Logger{l: l}, nil
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...core.Field) {
	l.l.Debug(msg, keyvals(fields)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...core.Field) {
	l.l.Info(msg, keyvals(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...core.Field) {
	l.l.Warn(msg, keyvals(fields)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...core.Field) {
	l.l.Error(msg, keyvals(fields)...)
}

func keyvals(fields []core.Field) []any {
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}
