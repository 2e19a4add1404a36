package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiGray   = "\033[90m"
	ansiCyan   = "\033[36m"
)

// PrettyHandler renders "15:04:05.000 LEVEL message key=value ..." lines.
// Handlers derived through WithAttrs and WithGroup share the writer lock.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	color  bool
	prefix string
	attrs  []byte
}

// NewPrettyHandler colors output when w is an *os.File attached to a
// terminal.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = isTerminal(f.Fd())
	}
	return &PrettyHandler{opts: *opts, w: w, mu: &sync.Mutex{}, color: color}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = h.paint(buf, ansiGray, func(b []byte) []byte {
		return r.Time.AppendFormat(b, "15:04:05.000")
	})
	buf = append(buf, ' ')
	buf = h.paint(buf, levelColor(r.Level), func(b []byte) []byte {
		lvl := r.Level.String()
		b = append(b, lvl...)
		for i := len(lvl); i < 5; i++ {
			b = append(b, ' ')
		}
		return b
	})
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	var attrs []byte
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})
	if len(attrs) > 0 {
		buf = h.paint(buf, ansiCyan, func(b []byte) []byte { return append(b, attrs...) })
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		c.attrs = appendAttr(c.attrs, h.prefix, a)
	}
	return &c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func (h *PrettyHandler) paint(buf []byte, color string, body func([]byte) []byte) []byte {
	if !h.color {
		return body(buf)
	}
	buf = append(buf, color...)
	buf = body(buf)
	return append(buf, ansiReset...)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiBlue
	default:
		return ansiGray
	}
}

// appendAttr writes " key=value", flattening groups into dotted keys.
func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			buf = appendAttr(buf, p, g)
		}
		return buf
	}

	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	switch a.Value.Kind() {
	case slog.KindString:
		buf = appendMaybeQuoted(buf, a.Value.String())
	case slog.KindTime:
		buf = a.Value.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindDuration:
		buf = append(buf, a.Value.Duration().String()...)
	default:
		buf = appendMaybeQuoted(buf, a.Value.String())
	}
	return buf
}

func appendMaybeQuoted(buf []byte, s string) []byte {
	for _, c := range s {
		if c <= ' ' || c == '"' || c == '=' || c > '~' {
			return strconv.AppendQuote(buf, s)
		}
	}
	if s == "" {
		return append(buf, `""`...)
	}
	return append(buf, s...)
}
