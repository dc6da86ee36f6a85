package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Create a slog.Handler that adds the active trace and span to log records
//
// NOTE: Requires the use of the *Context slog methods to get the tracing info
func NewTracingHandler(baseHandler slog.Handler) *tracingHandler {
	return &tracingHandler{base: baseHandler}
}

type tracingHandler struct {
	base slog.Handler
}

func (h *tracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *tracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
			slog.Bool("trace_sampled", sc.TraceFlags().IsSampled()),
		)
	}
	return h.base.Handle(ctx, r)
}

func (h *tracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTracingHandler(h.base.WithAttrs(attrs))
}

func (h *tracingHandler) WithGroup(name string) slog.Handler {
	return NewTracingHandler(h.base.WithGroup(name))
}

// Type assertion
var _ slog.Handler = (*tracingHandler)(nil)
