package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edlmatch/internal/failure"
	"edlmatch/internal/testsupport"
)

func seedRun(t *testing.T, env *cliTestEnv) {
	t.Helper()
	testsupport.WriteCSV(t, env.cfg.Batches.Root, "scene_v1.csv",
		testsupport.EditIndexHeader,
		[]string{"A001.mov", "A001", "01:00:00:00", "01:00:01:00", "10:00:00:00", "10:00:01:00"},
	)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Media.Root, "A001.mov"), 32)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Media.Root, "Z999.mov"), 32)
}

func TestRunWritesEDLAndSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRun(t, env)

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var summary runSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id in summary")
	}
	if summary.Matched != 1 || len(summary.Unmatched) != 1 || len(summary.Documents) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// The stub ffprobe prints nothing, so every probe fails but names still match.
	if len(summary.ProbeFailures) != 2 {
		t.Fatalf("expected probe failures for both files, got %v", summary.ProbeFailures)
	}

	data, err := os.ReadFile(filepath.Join(env.outDir, "scene_v1.edl"))
	if err != nil {
		t.Fatalf("read edl: %v", err)
	}
	requireContains(t, string(data), "TITLE: scene_v1")
	requireContains(t, string(data), "001  A001     V     C        01:00:00:00 01:00:01:00 10:00:00:00 10:00:01:00")
}

func TestRunTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRun(t, env)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "EDLs written")
	requireContains(t, out, "Unmatched media (key)")
	requireContains(t, out, "Z999.mov")
}

func TestRunRootFlagsOverrideConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRun(t, env)

	batches, mediaDir := env.cfg.Batches.Root, env.cfg.Media.Root
	env.cfg.Batches.Root = filepath.Join(t.TempDir(), "elsewhere")
	env.cfg.Media.Root = filepath.Join(t.TempDir(), "elsewhere")
	writeTestConfig(t, env)

	if _, _, err := runCLI(t, []string{"run", "--skip-preflight"}, env.configPath); !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("expected unreachable root error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"run", "-i", batches, "-m", mediaDir}, env.configPath); err != nil {
		t.Fatalf("run with flags: %v", err)
	}
}

func TestRunPreflightFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRun(t, env)
	env.cfg.Probe.Binary = filepath.Join(t.TempDir(), "missing-ffprobe")
	writeTestConfig(t, env)

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
}

func TestRunEmptyMediaIsAnError(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCSV(t, env.cfg.Batches.Root, "scene_v1.csv",
		testsupport.EditIndexHeader,
		[]string{"A001.mov", "A001", "01:00:00:00", "01:00:01:00", "10:00:00:00", "10:00:01:00"},
	)

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	if !errors.Is(err, failure.ErrEmptyCollection) {
		t.Fatalf("expected empty collection error, got %v", err)
	}
	requireContains(t, describeError(err), "nothing to match")
}

func TestCheckAndCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Probe.CacheEnabled = true
	writeTestConfig(t, env)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "All checks passed")

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 0 cached probe result(s)")
}

func TestCheckReportsRuleProblems(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTestConfig(t, env)
	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\n[reel]\nsource_template = \"{Reel}\"\npattern = \"([\"\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail on a malformed rule")
	}
	requireContains(t, out, "Rules with problems")
}
