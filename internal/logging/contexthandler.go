package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes evaluated at log time.
type ContextProvider func() []slog.Attr

// ContextHandler appends the provider's attributes to every record, so
// messages logged deep inside a turn carry the turn number.
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
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}

// Lazy defers to a provider that is bound later, for loggers created before
// the object that knows the context exists.
type Lazy struct {
	provider ContextProvider
}

// Bind sets the provider used by Attrs.
func (l *Lazy) Bind(p ContextProvider) { l.provider = p }

// Attrs is a ContextProvider; it returns nothing until bound.
func (l *Lazy) Attrs() []slog.Attr {
	if l.provider == nil {
		return nil
	}
	return l.provider()
}
