package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("install queued",
		String(FieldComponent, "scheduler"),
		Int64(FieldItemID, 42),
	)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, data)
	}
	if record["msg"] != "install queued" {
		t.Fatalf("unexpected message %v", record["msg"])
	}
	if record[FieldComponent] != "scheduler" {
		t.Fatalf("unexpected component %v", record[FieldComponent])
	}
	if record[FieldItemID] != float64(42) {
		t.Fatalf("unexpected item id %v", record[FieldItemID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Options{Level: "warn", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewComponentLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	base, err := New(Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	NewComponentLogger(base, "ipc").Info("hello")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record[FieldComponent] != "ipc" {
		t.Fatalf("unexpected component %v", record[FieldComponent])
	}

	// Nil base falls back to a no-op logger without panicking.
	NewComponentLogger(nil, "ipc").Info("dropped")
}

func TestErrorAttr(t *testing.T) {
	attr := Error(nil)
	if attr.Value.String() != "<nil>" {
		t.Fatalf("unexpected nil error attr %v", attr)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("ignored")
	logger.Error("also ignored")
}
