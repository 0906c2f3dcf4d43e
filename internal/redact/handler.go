package redact

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
)

// Handler is a slog.Handler that renders each record through an inner
// handler first (timestamp, level, message, attributes) and then redacts
// the fully rendered line before writing it to the destination. Redaction
// therefore sees final text, not structured fields -- PII embedded in a
// message string is caught the same as PII in an attribute value.
type Handler struct {
	inner slog.Handler

	// mu guards buf and out. The inner handler writes into buf; Handle
	// redacts the buffered line and copies it to out under the same lock
	// so concurrent records never interleave.
	mu  *sync.Mutex
	buf *bytes.Buffer
	out io.Writer
	red *Redactor
}

// NewTextHandler returns a redacting handler that renders records with
// slog.NewTextHandler before scrubbing them.
func NewTextHandler(out io.Writer, opts *slog.HandlerOptions, r *Redactor) *Handler {
	buf := &bytes.Buffer{}
	return &Handler{
		inner: slog.NewTextHandler(buf, opts),
		mu:    &sync.Mutex{},
		buf:   buf,
		out:   out,
		red:   r,
	}
}

// NewJSONHandler returns a redacting handler that renders records with
// slog.NewJSONHandler before scrubbing them.
func NewJSONHandler(out io.Writer, opts *slog.HandlerOptions, r *Redactor) *Handler {
	buf := &bytes.Buffer{}
	return &Handler{
		inner: slog.NewJSONHandler(buf, opts),
		mu:    &sync.Mutex{},
		buf:   buf,
		out:   out,
		red:   r,
	}
}

// Enabled reports whether the inner handler handles records at the level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle renders the record into the shared buffer, redacts the rendered
// text, and writes the result to the destination.
func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, rec); err != nil {
		return err
	}

	_, err := io.WriteString(h.out, h.red.Redact(h.buf.String()))
	return err
}

// WithAttrs returns a handler whose inner handler carries the attrs. The
// buffer, lock, and destination are shared so output stays serialized.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner: h.inner.WithAttrs(attrs),
		mu:    h.mu,
		buf:   h.buf,
		out:   h.out,
		red:   h.red,
	}
}

// WithGroup returns a handler whose inner handler opens the group.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner: h.inner.WithGroup(name),
		mu:    h.mu,
		buf:   h.buf,
		out:   h.out,
		red:   h.red,
	}
}
