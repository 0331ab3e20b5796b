package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newPrettyLogger(buf *bytes.Buffer, color bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	return slog.New(newPrettyHandler(buf, opts, color))
}

func TestPrettyHandlerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newPrettyLogger(&buf, false)

	log.Info("http.request", "method", "get", "status", 404, "path", "/nope")

	out := buf.String()
	for _, want := range []string{
		"lvl=[INFO]",
		"msg=http.request",
		"method=GET",
		"status=404",
		"path=/nope",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color disabled but output contains ANSI: %q", out)
	}
}

func TestPrettyHandlerColorsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := newPrettyLogger(&buf, true)

	log.Info("http.request", "status", 500)
	if !strings.Contains(buf.String(), ansiRed+"500"+ansiReset) {
		t.Fatalf("5xx status not red: %q", buf.String())
	}

	buf.Reset()
	log.Info("http.request", "status", 200)
	if !strings.Contains(buf.String(), ansiGreen+"200"+ansiReset) {
		t.Fatalf("2xx status not green: %q", buf.String())
	}
}

func TestPrettyHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newPrettyLogger(&buf, false)

	log.With("request_id", "abc").WithGroup("db").Info("query", "rows", 3)

	out := buf.String()
	if !strings.Contains(out, "request_id=abc") {
		t.Fatalf("missing bound attr: %q", out)
	}
	if !strings.Contains(out, "db.rows=3") {
		t.Fatalf("missing grouped attr: %q", out)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	log := newPrettyLogger(&buf, false)

	log.Info("event", "note", "two words")
	if !strings.Contains(buf.String(), `note="two words"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestPrettyHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	h := newPrettyHandler(&buf, opts, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info enabled at warn threshold")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error disabled at warn threshold")
	}
}
