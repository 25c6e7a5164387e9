package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"edlmatch/internal/logging"
)

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller", logging.String(logging.FieldBatch, "edit_v01.csv"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(string(content), "- Batch: edit_v01.csv") {
		t.Fatalf("expected batch field in output, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerCarriesRunIDAndPhase(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
		RunID:       "run-123",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.PhaseLogger(logger, "match", nil).Warn("media not matched")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("decode json line %q: %v", content, err)
	}
	if entry[logging.FieldRunID] != "run-123" {
		t.Fatalf("unexpected run id: %v", entry[logging.FieldRunID])
	}
	if entry[logging.FieldPhase] != "match" {
		t.Fatalf("unexpected phase: %v", entry[logging.FieldPhase])
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromSettingsCreatesDatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := logging.NewFromSettings(logging.Settings{Level: "info", Format: "json", Dir: dir})
	if err != nil {
		t.Fatalf("NewFromSettings returned error: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(filepath.Join(dir, logging.LogFileName(time.Now()))); err != nil {
		t.Fatalf("expected dated log file: %v", err)
	}
}

func TestPhaseLoggerAppliesOverride(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	quiet := logging.PhaseLogger(base, "probe", map[string]string{"probe": "warn"})
	quiet.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be suppressed, got %q", buf.String())
	}
	quiet.Warn("kept")
	if !strings.Contains(buf.String(), `"phase":"probe"`) {
		t.Fatalf("expected phase attribute, got %q", buf.String())
	}
}

func TestWarningCounterTalliesByPhase(t *testing.T) {
	logger, counter := logging.WithWarningCounter(logging.NewNop())

	logging.PhaseLogger(logger, "match", nil).Warn("unmatched")
	logging.PhaseLogger(logger, "match", nil).Warn("unmatched again")
	logging.PhaseLogger(logger, "write", nil).Error("write failed")
	logger.Info("ignored")
	logging.WithContext(logging.WithPhase(context.Background(), "group"), logger).Warn("bad pattern")

	warnings, errors := counter.Total()
	if warnings != 3 || errors != 1 {
		t.Fatalf("unexpected totals: warnings=%d errors=%d", warnings, errors)
	}
	snapshot := counter.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 phases, got %#v", snapshot)
	}
	if snapshot[0].Phase != "group" || snapshot[1].Phase != "match" || snapshot[1].Warnings != 2 {
		t.Fatalf("unexpected snapshot: %#v", snapshot)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "rule invalid", "rule_invalid", logging.String(logging.FieldRule, "reel"))

	out := buf.String()
	for _, want := range []string{`"event_type":"rule_invalid"`, `"error_hint"`, `"impact"`, `"rule":"reel"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "edlmatch-20200101.log")
	keep := filepath.Join(dir, "edlmatch-20200102.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, keep, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		past := time.Now().AddDate(0, 0, -30)
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), dir, 7, filepath.Base(keep))
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{keep, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}
