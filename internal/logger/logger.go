package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging interface used across guppi. The reader's
// diagnostics hook only needs Debug and Error, so any Logger can be passed
// to guppi.WithDiagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	logger *slog.Logger
}

func New(handler slog.Handler) Logger {
	return &SlogLogger{logger: slog.New(handler)}
}

// Default logs info and above to stderr.
func Default() Logger {
	return Pretty(os.Stderr, slog.LevelInfo)
}

// JSON writes one JSON object per record, with source positions.
func JSON(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}

// Text writes logfmt-style records without color.
func Text(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Pretty is the CLI format. Color is used only when w is a terminal.
func Pretty(w io.Writer, level slog.Level) Logger {
	return New(NewPrettyHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard drops everything.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

// File logs JSON to path, rotating at 100 MB and keeping five compressed
// backups. The returned closer releases the file.
func File(path string, level slog.Level) (Logger, io.Closer) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
		Compress:   true,
	}
	return JSON(lj, level), lj
}

// FromFlags builds the logger selected on the command line. A non-empty file
// always gets JSON; otherwise format picks pretty, text or json on stderr.
func FromFlags(format, level, file string) (Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if file != "" {
		l, c := File(file, lvl)
		return l, c, nil
	}
	switch strings.ToLower(format) {
	case "", "pretty":
		return Pretty(os.Stderr, lvl), nopCloser{}, nil
	case "text":
		return Text(os.Stderr, lvl), nopCloser{}, nil
	case "json":
		return JSON(os.Stderr, lvl), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want pretty, text or json)", format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromContext returns the logger stored by WithContext, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

type loggerKey struct{}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{logger: l.logger.WithGroup(name)}
}

// Slog exposes the underlying logger for libraries that want one.
func (l *SlogLogger) Slog() *slog.Logger { return l.logger }

// ParseLevel accepts debug, info, warn/warning and error in any case. The
// empty string means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
