package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitWithWriter_JSONLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", "json", &buf)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["message"] != "shown 3" {
		t.Errorf("message = %v, want %q", entry["message"], "shown 3")
	}
}

func TestInitWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("debug", "text", &buf)

	Debug("calibrated at draw %d", 120)

	if !strings.Contains(buf.String(), "calibrated at draw 120") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("verbose", "json", &buf)

	Debug("dropped")
	Info("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("info message missing")
	}
}
