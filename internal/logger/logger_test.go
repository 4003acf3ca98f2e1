package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerWritesStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	old := Logger
	Logger = slog.New(slog.NewTextHandler(&buf, nil))
	defer func() { Logger = old }()

	Info("refresh complete", "requests", 42)

	out := buf.String()
	if !strings.Contains(out, "refresh complete") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "requests=42") {
		t.Errorf("expected attribute in output, got %q", out)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	old := Logger
	Logger = slog.New(slog.NewTextHandler(&buf, nil))
	defer func() { Logger = old }()

	Debug("not shown at default level")
	Warn("shown")
	Error("also shown")

	out := buf.String()
	if strings.Contains(out, "not shown") {
		t.Errorf("debug message should be suppressed at default level: %q", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "level=ERROR") {
		t.Errorf("expected warn and error entries, got %q", out)
	}
}
