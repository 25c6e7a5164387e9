package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edlmatch/internal/config"
	"edlmatch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	outDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("EDLMATCH_BATCH_ROOT", "")
	t.Setenv("EDLMATCH_MEDIA_ROOT", "")
	t.Setenv("EDLMATCH_FFPROBE", "")

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(base, "edlmatch.toml"),
		outDir:     filepath.Join(base, "out"),
	}
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	cfg := env.cfg
	content := fmt.Sprintf(
		"[batches]\nroot = %q\n\n[media]\nroot = %q\n\n[output]\nuse_media_root = false\ncustom_root = %q\n\n"+
			"[probe]\nbinary = %q\ncache_enabled = %t\ncache_path = %q\n\n[paths]\nstate_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Batches.Root,
		cfg.Media.Root,
		env.outDir,
		cfg.Probe.Binary,
		cfg.Probe.CacheEnabled,
		cfg.Probe.CachePath,
		cfg.Paths.StateDir,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
