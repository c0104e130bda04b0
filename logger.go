package rendergraph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the package logger. Graphs created without WithLogger
// read it on every log call, so SetLogger takes effect immediately.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the default logger for render graphs.
// By default the package produces no log output. Pass nil to restore the
// silent logger.
//
// Log levels used by rendergraph:
//   - [slog.LevelDebug]: per-pass barrier plans, cache hits
//   - [slog.LevelInfo]: texture recreation after a descriptor change
//   - [slog.LevelWarn]: tolerated contract problems with validation off
//   - [slog.LevelError]: frames aborted by execute or backend failures
//
// Backends keep their own loggers. A device that implements
// SetLogger(*slog.Logger) receives the graph's logger from [New]: the
// WithLogger logger if one was given, otherwise the package logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes l to dev if the device supports logging.
func propagateLogger(dev any, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
