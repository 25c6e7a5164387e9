package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"edlmatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose batch root, media root and state
// directory are fresh temp directories. Roots are created so preflight checks
// pass; options run afterwards.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Batches.Root = filepath.Join(base, "batches")
	cfgVal.Media.Root = filepath.Join(base, "media")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Logging.Dir = filepath.Join(base, "state", "logs")
	cfgVal.Probe.CachePath = filepath.Join(base, "state", "probe-cache.db")
	cfgVal.Probe.CacheEnabled = false

	for _, dir := range []string{cfgVal.Batches.Root, cfgVal.Media.Root, cfgVal.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProbeCache enables the probe cache inside the state directory.
func WithProbeCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Probe.CacheEnabled = true
	}
}

// WithMatchTimecode toggles temporal validation.
func WithMatchTimecode(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.MatchTimecode = enabled
	}
}

// WithStubbedBinaries puts no-op executables for names first on PATH and
// points the probe binary at the bare ffprobe name. Defaults to ffprobe.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.cfg.Probe.Binary = "ffprobe"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
