package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// handlerCell holds the current handler generation.
type handlerCell struct {
	h atomic.Pointer[slog.Handler]
}

func (c *handlerCell) load() slog.Handler {
	if h := c.h.Load(); h != nil {
		return *h
	}
	return slog.DiscardHandler
}

func (c *handlerCell) store(h slog.Handler) { c.h.Store(&h) }

// swapHandler forwards to whatever handler the cell currently holds, so
// loggers derived with With or WithGroup follow reconfiguration.
type swapHandler struct {
	root *handlerCell
	ops  []func(slog.Handler) slog.Handler
}

func (h *swapHandler) current() slog.Handler {
	inner := h.root.load()
	for _, op := range h.ops {
		inner = op(inner)
	}
	return inner
}

func (h *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.root.load().Enabled(ctx, level)
}

func (h *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := traceAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.current().Handle(ctx, r)
}

func (h *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *swapHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *swapHandler) with(op func(slog.Handler) slog.Handler) *swapHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &swapHandler{root: h.root, ops: append(ops, op)}
}
