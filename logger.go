package canopy

import (
	"context"
	"log/slog"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// DefaultLogSinkID is the sink used by scenes that name none, or name one
// that is not registered.
const DefaultLogSinkID = "default"

// RegisterLogSink registers a named logger that scene roots can select with
// SceneRoot.LogSinkID. Passing a nil logger removes the sink.
//
// Log levels used by canopy:
//   - [slog.LevelDebug]: per-pass statistics (with WithDebug)
//   - [slog.LevelInfo]: scene lifecycle
//   - [slog.LevelWarn]: recoverable node errors
//   - [slog.LevelError]: fatal traversal errors
func (e *Engine) RegisterLogSink(id string, l *slog.Logger) {
	if l == nil {
		delete(e.sinks, id)
		return
	}
	e.sinks[id] = l
}

// Logger returns the engine logger. By default it discards all output.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// resolveLogSink picks the logger for a scene: the named sink, then the
// default sink, then the engine logger.
func (e *Engine) resolveLogSink(id string) *slog.Logger {
	if id != "" {
		if l, ok := e.sinks[id]; ok {
			return l
		}
	}
	if l, ok := e.sinks[DefaultLogSinkID]; ok {
		return l
	}
	return e.logger
}
