package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "debug", "json")
	logger.Debug("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSetupLogger_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("warn should be logged: %q", out)
	}
}

func TestSetupLogger_BadLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "loud", "text")
	if !strings.Contains(buf.String(), "Falling back to info log level") {
		t.Errorf("expected fallback warning, got %q", buf.String())
	}
	buf.Reset()
	logger.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("info level should be active: %q", buf.String())
	}
}
