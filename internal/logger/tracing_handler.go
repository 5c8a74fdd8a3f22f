package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/uonline/internal/ctxutil"
)

// TracingHandler stamps request_id and client_ip from the context onto
// every record, so package-level slog.*Context calls in services carry the
// same correlation fields as the access log.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next.
func NewTracingHandler(next slog.Handler) *TracingHandler {
	return &TracingHandler{next: next}
}

func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, 2)
	if id, ok := ctxutil.GetRequestID(ctx); ok && id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if ip := ctxutil.GetClientIP(ctx); ip != "" {
		attrs = append(attrs, slog.String("client_ip", ip))
	}
	r.AddAttrs(attrs...)
	return h.next.Handle(ctx, r)
}

func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: h.next.WithGroup(name)}
}
