package logging

import (
	"context"
	"log/slog"
)

// SessionGroup is the group live session attributes are logged under.
const SessionGroup = "session"

// ContextProvider returns the live session state at the time of the call.
type ContextProvider func() []slog.Attr

// ContextHandler appends the provider's attributes to every record as the
// "session" group. Nothing is added when the provider returns none.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		if attrs := h.provider(); len(attrs) > 0 {
			r.AddAttrs(slog.Attr{Key: SessionGroup, Value: slog.GroupValue(attrs...)})
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

// WithGroup nests later attributes; the session group still lands inside
// any open group of the inner handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
