package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeRoots(); err != nil {
		return err
	}
	if err := c.normalizeProbe(); err != nil {
		return err
	}
	c.normalizeBatches()
	c.normalizeMatching()
	c.normalizeOutput()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRoots() error {
	var err error
	if strings.TrimSpace(c.Batches.Root) == "" {
		if value, ok := os.LookupEnv("EDLMATCH_BATCH_ROOT"); ok {
			c.Batches.Root = strings.TrimSpace(value)
		}
	}
	if c.Batches.Root, err = expandPath(c.Batches.Root); err != nil {
		return fmt.Errorf("batches.root: %w", err)
	}
	if strings.TrimSpace(c.Media.Root) == "" {
		if value, ok := os.LookupEnv("EDLMATCH_MEDIA_ROOT"); ok {
			c.Media.Root = strings.TrimSpace(value)
		}
	}
	if c.Media.Root, err = expandPath(c.Media.Root); err != nil {
		return fmt.Errorf("media.root: %w", err)
	}
	return nil
}

// SetRoots applies command-line root overrides. Empty values keep the
// configured roots.
func (c *Config) SetRoots(batchRoot, mediaRoot string) error {
	var err error
	if strings.TrimSpace(batchRoot) != "" {
		if c.Batches.Root, err = expandPath(batchRoot); err != nil {
			return fmt.Errorf("batch root: %w", err)
		}
	}
	if strings.TrimSpace(mediaRoot) != "" {
		if c.Media.Root, err = expandPath(mediaRoot); err != nil {
			return fmt.Errorf("media root: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProbe() error {
	c.Probe.Binary = strings.TrimSpace(c.Probe.Binary)
	if value, ok := os.LookupEnv("EDLMATCH_FFPROBE"); ok && strings.TrimSpace(value) != "" && c.Probe.Binary == defaultFFprobeBinary {
		c.Probe.Binary = strings.TrimSpace(value)
	}
	if c.Probe.Binary == "" {
		c.Probe.Binary = defaultFFprobeBinary
	}
	if c.Probe.TimeoutSeconds < 0 {
		c.Probe.TimeoutSeconds = 0
	}
	var err error
	if strings.TrimSpace(c.Probe.CachePath) == "" {
		c.Probe.CachePath = filepath.Join(c.Paths.StateDir, defaultProbeCacheName)
	}
	if c.Probe.CachePath, err = expandPath(c.Probe.CachePath); err != nil {
		return fmt.Errorf("probe.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBatches() {
	cleaned := make(map[string]string, len(c.Batches.Rename))
	for target, source := range c.Batches.Rename {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		cleaned[target] = source
	}
	c.Batches.Rename = cleaned

	required := make([]string, 0, len(c.Batches.RequiredColumns))
	seen := make(map[string]struct{}, len(c.Batches.RequiredColumns))
	for _, col := range c.Batches.RequiredColumns {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if _, exists := seen[col]; exists {
			continue
		}
		seen[col] = struct{}{}
		required = append(required, col)
	}
	c.Batches.RequiredColumns = required
}

func (c *Config) normalizeMatching() {
	c.Matching.SourceColumn = strings.TrimSpace(c.Matching.SourceColumn)
	if c.Matching.MediaTemplate == "" {
		c.Matching.MediaTemplate = defaultMediaTemplate
	}
}

func (c *Config) normalizeOutput() {
	c.Output.CustomRoot = strings.TrimSpace(c.Output.CustomRoot)
	if c.Output.MaxReelWidth == 0 {
		c.Output.MaxReelWidth = defaultMaxReelWidth
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = filepath.Join(c.Paths.StateDir, defaultLogDirName)
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	overrides := make(map[string]string, len(c.Logging.StageOverrides))
	for phase, level := range c.Logging.StageOverrides {
		phase = strings.ToLower(strings.TrimSpace(phase))
		level = strings.ToLower(strings.TrimSpace(level))
		if phase == "" || level == "" {
			continue
		}
		overrides[phase] = level
	}
	c.Logging.StageOverrides = overrides
	return nil
}
