// Package logger provides a convenience function to constructing a logger
// for use. This is required not just for applications but for testing.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/rschio/riskdash/internal/web"
)

// New constructs a slog Logger that writes JSON records to w. Every record
// carries the service name and the trace id found in its context.
func New(w io.Writer, level string, service string) *slog.Logger {
	opts := slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(level),
	}
	jh := slog.NewJSONHandler(w, &opts)
	return slog.New(withTraceID{Handler: jh}).With("service", service)
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type withTraceID struct {
	slog.Handler
}

func (h withTraceID) Handle(ctx context.Context, r slog.Record) error {
	r.Add("trace_id", web.GetTraceID(ctx))

	return h.Handler.Handle(ctx, r)
}

func (h withTraceID) WithAttrs(attrs []slog.Attr) slog.Handler {
	return withTraceID{Handler: h.Handler.WithAttrs(attrs)}
}

func (h withTraceID) WithGroup(name string) slog.Handler {
	return withTraceID{Handler: h.Handler.WithGroup(name)}
}

// DebugcCtx logs at debug level attributing the record to the caller
// frames above the helper that invoked it.
func DebugcCtx(ctx context.Context, log *slog.Logger, caller int, msg string, args ...any) {
	logc(ctx, log, slog.LevelDebug, caller, msg, args...)
}

// InfocCtx is DebugcCtx at info level.
func InfocCtx(ctx context.Context, log *slog.Logger, caller int, msg string, args ...any) {
	logc(ctx, log, slog.LevelInfo, caller, msg, args...)
}

func logc(ctx context.Context, log *slog.Logger, level slog.Level, caller int, msg string, args ...any) {
	if !log.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(caller+1, pcs[:]) // skip [Callers, logc]

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)

	log.Handler().Handle(ctx, r)
}
