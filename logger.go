package maptex

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the package logger used by engines created without
// [WithLogger] and by sub-packages such as gpubind and loader.
// By default, maptex produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to disable logging.
//
// Log levels used by maptex:
//   - [slog.LevelDebug]: per-frame decisions (level choice, cache hits, uploads)
//   - [slog.LevelInfo]: lifecycle events (pyramid built, viewer released)
//   - [slog.LevelWarn]: non-fatal issues (upload failures)
//
// Example:
//
//	maptex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by uploaders that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to an uploader if it implements
// loggerSetter.
func propagateLogger(u Uploader, l *slog.Logger) {
	if ls, ok := u.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
