package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nulpointcorp/hackstack/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, &config.Config{LogLevel: "warn", LogFormat: "json"})

	l.Info("dropped")
	l.Warn("kept", "vendor", "openai")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record written at warn level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", out, err)
	}
	if rec["service"] != "hackstack" || rec["vendor"] != "openai" {
		t.Errorf("unexpected record %v", rec)
	}
	if _, ok := rec["source"]; ok {
		t.Error("source is only attached in debug mode")
	}
}

func TestNewLogger_TextAndDebug(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, &config.Config{LogLevel: "debug", LogFormat: "text"})

	l.Debug("probe")

	out := buf.String()
	if !strings.Contains(out, "msg=probe") || !strings.Contains(out, "source=") {
		t.Errorf("expected text record with source, got %q", out)
	}
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, &config.Config{LogLevel: "loud"})

	l.Debug("hidden")
	l.Info("shown")

	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}
