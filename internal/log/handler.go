package log

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/agent-dashboard/internal/reqctx"
)

// ContextHandler wraps an slog.Handler and copies request_id, session_id
// and agent_id from the context onto every record.
type ContextHandler struct {
	inner slog.Handler
}

func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := reqctx.RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := reqctx.SessionID(ctx); id != "" {
		r.AddAttrs(slog.String("session_id", id))
	}
	if id := reqctx.AgentID(ctx); id != "" {
		r.AddAttrs(slog.String("agent_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
