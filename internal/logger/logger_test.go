package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("opened file", "path", "obs.0000.raw")

	output := buf.String()
	if !strings.Contains(output, `"msg":"opened file"`) {
		t.Fatalf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"path":"obs.0000.raw"`) {
		t.Fatalf("expected path attr in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Fatalf("expected level INFO in output, got: %s", output)
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("hidden")
	log.Debug("hidden too")
	if buf.Len() > 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}

	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	Text(&buf, slog.LevelInfo).Info("scan done", "blocks", 7)
	if !strings.Contains(buf.String(), "blocks=7") {
		t.Fatalf("expected blocks=7, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := Discard()
	log.Error("nothing happens")
	log.With("k", "v").WithGroup("g").Info("still nothing")
}

func TestFileWritesJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "guppi.log")
	log, closer := File(path, slog.LevelDebug)
	log.Debug("header decode fault", "offset", 92)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"offset":92`) {
		t.Fatalf("expected offset attr in log file, got: %s", data)
	}
}

func TestFromFlags(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"", "pretty", "text", "JSON"} {
		log, closer, err := FromFlags(format, "debug", "")
		if err != nil {
			t.Fatalf("FromFlags(%q): %v", format, err)
		}
		if log == nil || closer == nil {
			t.Fatalf("FromFlags(%q) returned nil", format)
		}
		_ = closer.Close()
	}

	if _, _, err := FromFlags("xml", "info", ""); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, _, err := FromFlags("json", "loud", ""); err == nil {
		t.Fatal("expected error for unknown level")
	}

	path := filepath.Join(t.TempDir(), "out.log")
	log, closer, err := FromFlags("pretty", "info", path)
	if err != nil {
		t.Fatalf("FromFlags with file: %v", err)
	}
	log.Info("to file")
	_ = closer.Close()
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "to file") {
		t.Fatalf("expected file output, got: %s", data)
	}
}

func TestWith(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	JSON(&buf, slog.LevelInfo).With("component", "reader").Info("child message")

	output := buf.String()
	if !strings.Contains(output, `"component":"reader"`) {
		t.Fatalf("expected component attr in output, got: %s", output)
	}
}

func TestWithGroup(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	JSON(&buf, slog.LevelInfo).WithGroup("block").Info("decoded", "index", 3)

	if !strings.Contains(buf.String(), `"block":{"index":3}`) {
		t.Fatalf("expected grouped attr, got: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("roundtrip test")
	if !strings.Contains(buf.String(), "roundtrip test") {
		t.Fatalf("expected message via context logger, got: %s", buf.String())
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without a logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"Warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"unknown", slog.LevelInfo, true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q): err = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
		if got != tc.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}

func TestPrettyNoColorForBuffers(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	Pretty(&buf, slog.LevelInfo).Info("plain", "key", "value")

	output := buf.String()
	if strings.Contains(output, "\033[") {
		t.Fatalf("expected no escape codes, got: %q", output)
	}
	if !strings.Contains(output, "INFO  plain key=value") {
		t.Fatalf("unexpected layout: %q", output)
	}
}

func TestPrettyHandlerAttrsAndGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil).
		WithAttrs([]slog.Attr{slog.String("stem", "obs")}).
		WithGroup("a").
		WithGroup("b")
	slog.New(h).Info("nested", "key", "val", slog.Group("g", "x", 1))

	output := buf.String()
	for _, want := range []string{"stem=obs", "a.b.key=val", "a.b.g.x=1"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestPrettyHandlerEmptyGroup(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatal("WithGroup(\"\") should return the same handler")
	}
}

func TestPrettyQuoting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  string
	}{
		{"simple", "k=simple"},
		{"has space", `k="has space"`},
		{"has\ttab", `k="has\ttab"`},
		{`has"quote`, `k="has\"quote"`},
		{"", `k=""`},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		slog.New(NewPrettyHandler(&buf, nil)).Info("m", "k", tc.value)
		if !strings.Contains(buf.String(), tc.want) {
			t.Errorf("value %q: expected %s in %q", tc.value, tc.want, buf.String())
		}
	}
}
