package stage

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestLoggerDefaultsSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(nil, slog.LevelError) {
		t.Error("default logger is enabled; want silent")
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello")
	if buf.Len() == 0 {
		t.Error("configured logger produced no output")
	}

	SetLogger(nil)
	if Logger().Enabled(nil, slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}
