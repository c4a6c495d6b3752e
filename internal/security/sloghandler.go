package security

import (
	"io"
	"log/slog"
)

// NewLogHandler returns a text handler writing to w. The message and every
// attribute pass through r before they are formatted, including attributes
// added with Logger.With.
func NewLogHandler(w io.Writer, level slog.Leveler, r *Redactor) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: r.ReplaceAttr,
	})
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Values arrive
// already resolved; group members are passed one by one, so only strings
// and arbitrary values (errors, URLs, Stringers) need scrubbing.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString, slog.KindAny:
		s := a.Value.String()
		if redacted := r.Redact(s); redacted != s {
			a.Value = slog.StringValue(redacted)
		}
	}
	return a
}
