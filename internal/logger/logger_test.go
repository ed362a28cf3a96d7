package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupFiltersBelowLevel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	logger, err := Setup("warn", &buf)
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	logger.Info("info message should be filtered")
	slog.Warn("warn message should appear")

	output := buf.String()
	if strings.Contains(output, "info message should be filtered") {
		t.Fatalf("info message was logged at WARN level:\n%s", output)
	}
	if !strings.Contains(output, "warn message should appear") {
		t.Fatalf("warn message was not logged through the default logger:\n%s", output)
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	logger, err := Setup("loud", &buf)
	if err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	if logger == nil {
		t.Fatal("expected a usable logger even when the level is invalid")
	}
	if !strings.Contains(buf.String(), "invalid log level configured") {
		t.Errorf("expected a warning about the level, got:\n%s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		" INFO ": slog.LevelInfo,
		"warn":   slog.LevelWarn,
		"error":  slog.LevelError,
	}
	for input, expected := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", input, got, expected)
		}
	}
}
