package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Format selects the log line encoding.
type Format string

const (
	// FormatText writes logfmt-style key=value lines.
	FormatText Format = "text"

	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat converts a log format name. The empty name selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// SecureHandler wraps an slog.Handler and redacts every attribute before
// the record reaches it.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Every package receives a plain *slog.Logger and needs no changes
type SecureHandler struct {
	handler  slog.Handler
	redactor *Redactor
}

// NewSecureHandler creates a SecureHandler around handler.
// A nil handler uses slog.Default().Handler() and a nil redactor masks
// only the built-in header keys and query parameters.
func NewSecureHandler(handler slog.Handler, redactor *Redactor) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if redactor == nil {
		redactor = NewRedactor()
	}
	return &SecureHandler{handler: handler, redactor: redactor}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs redacts attrs once, when they are attached.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup returns a handler that nests later attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name), redactor: h.redactor}
}

func (h *SecureHandler) redactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		group := v.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if h.redactor.SecretKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.Redact(v.String()))
	case slog.KindAny:
		// Fetch errors quote the URL they failed on.
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.redactor.Redact(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// NewSecureLogger creates a text logger that redacts through redactor.
// verbose selects slog.LevelDebug instead of slog.LevelInfo.
func NewSecureLogger(w io.Writer, verbose bool, redactor *Redactor) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose)), redactor))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, for log
// collectors.
func NewSecureJSONLogger(w io.Writer, verbose bool, redactor *Redactor) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose)), redactor))
}

// NewLogger creates the secure logger for format.
func NewLogger(w io.Writer, format Format, verbose bool, redactor *Redactor) *slog.Logger {
	if format == FormatJSON {
		return NewSecureJSONLogger(w, verbose, redactor)
	}
	return NewSecureLogger(w, verbose, redactor)
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
