package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "prod")
	log.Debug("hidden")
	log.Info("record created", "host", "www")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line leaked at info level: %s", line)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("output is not json: %v: %s", err, line)
	}
	if entry["msg"] != "record created" || entry["host"] != "www" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestDevOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "dev")
	log.Debug("looking up zone", "domain", "example.com")

	out := buf.String()
	if !strings.Contains(out, "looking up zone") || !strings.Contains(out, "example.com") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("dev output should not be json: %q", out)
	}
}
