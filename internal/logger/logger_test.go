package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("Text") != FormatText {
		t.Error("expected text format")
	}
	if ParseFormat("") != FormatJSON {
		t.Error("expected json to be the default")
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo, FormatJSON)

	log.Debug("hidden")
	log.Info("Post published", "post_id", "p1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "Post published" || entry["post_id"] != "p1" || entry["service"] != "inkwell-api" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, slog.LevelDebug, FormatText).Debug("cache miss", "key", "posts:published")

	if !strings.Contains(buf.String(), "key=posts:published") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}
