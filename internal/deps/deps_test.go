package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Command != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for empty command: %#v", results[2])
	}
}

func TestCheckFFprobeExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	probe := filepath.Join(tmp, "ffprobe")
	if err := os.WriteFile(probe, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	status := CheckFFprobe(probe)
	if !status.Available || status.Command != probe {
		t.Fatalf("expected explicit ffprobe to be available, got %#v", status)
	}

	plain := filepath.Join(tmp, "not-exec")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if status := CheckFFprobe(plain); status.Available {
		t.Fatalf("expected non-executable file to be unavailable")
	}
}

func TestCheckFFprobeFromPath(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "ffprobe"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := CheckFFprobe("")
	if !status.Available {
		t.Fatalf("expected ffprobe on PATH, got detail %q", status.Detail)
	}
	if status.Command != filepath.Join(binDir, "ffprobe") {
		t.Fatalf("unexpected resolved command %q", status.Command)
	}

	t.Setenv("PATH", t.TempDir())
	if status := CheckFFprobe(""); status.Available {
		t.Fatal("expected ffprobe to be missing from empty PATH")
	}
}
