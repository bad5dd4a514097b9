package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"verbose", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextFormat(t *testing.T) {
	defer Disable()

	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "text")

	Debug("hidden %d", 1)
	Info("round %s started", "abc")
	Error("send failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(out, "[INFO] round abc started") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] send failed") {
		t.Errorf("missing error line in %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("expected caller file in %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	defer Disable()

	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")

	Debug("guess %.0f scored", 1500.0)
	Warn("chat %d idle", 42)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["level"] != "WARN" || entry["msg"] != "chat 42 idle" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	Disable()
	// Must not panic.
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}
