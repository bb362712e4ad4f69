package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
)

// NewLogger builds the process-wide structured logger. Records also
// flow through the otelslog bridge so a connected log pipeline (an OTel
// collector) receives the same events a local operator sees on stderr.
func NewLogger(loggerProvider log.LoggerProvider) *slog.Logger {
	otelHandler := otelslog.NewHandler("webpush-connection-engine", otelslog.WithLoggerProvider(loggerProvider))
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})

	return slog.New(fanoutHandler{handlers: []slog.Handler{textHandler, otelHandler}})
}

// fanoutHandler dispatches every record to each wrapped handler in turn.
// slog has no built-in multi-writer handler, so it is the one piece of
// ambient plumbing this package hand-rolls rather than pulling in a
// wrapper library for.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return fanoutHandler{handlers: next}
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return fanoutHandler{handlers: next}
}
