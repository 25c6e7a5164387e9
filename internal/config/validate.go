package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"edlmatch/internal/tokens"
)

const maxReelWidthLimit = 64

var validLogLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {}}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateBatches(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateSkipFilters(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.FrameRate <= 0 {
		return errors.New("output.frame_rate must be positive")
	}
	if c.Output.MaxReelWidth < 1 || c.Output.MaxReelWidth > maxReelWidthLimit {
		return fmt.Errorf("output.max_reel_width must be between 1 and %d", maxReelWidthLimit)
	}
	if c.Output.UseMediaRoot && c.Output.UseMediaRootUp {
		return errors.New("output.use_media_root and output.use_media_root_up are mutually exclusive")
	}
	if c.Output.NameFromBatch && c.Output.NameFromMediaFolder {
		return errors.New("output.name_from_batch and output.name_from_media_folder are mutually exclusive")
	}
	if !c.Output.NameFromBatch && !c.Output.NameFromMediaFolder &&
		strings.TrimSpace(c.Output.NamePrefix+c.Output.NameCustom+c.Output.NameSuffix) == "" {
		return errors.New("output.name_custom must be set when no name policy is enabled")
	}
	return nil
}

// validateBatches rejects rename tables where one CSV column would feed two
// target columns.
func (c *Config) validateBatches() error {
	claimed := make(map[string]string, len(c.Batches.Rename))
	for _, target := range slices.Sorted(maps.Keys(c.Batches.Rename)) {
		source := strings.TrimSpace(c.Batches.Rename[target])
		if source == "" || source == target {
			continue
		}
		if other, ok := claimed[source]; ok {
			return fmt.Errorf("batches.rename: column %q is mapped to both %q and %q", source, other, target)
		}
		claimed[source] = target
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.SourceColumn == "" {
		return errors.New("matching.source_column must be set")
	}
	return nil
}

func (c *Config) validateSkipFilters() error {
	for i, f := range c.SkipFilters {
		if strings.TrimSpace(f.Column) == "" {
			return fmt.Errorf("skip_filters[%d].column must be set", i)
		}
	}
	return nil
}

func (c *Config) validateProbe() error {
	if strings.TrimSpace(c.Probe.Binary) == "" {
		return errors.New("probe.binary must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	for phase, level := range c.Logging.StageOverrides {
		if _, ok := validLogLevels[level]; !ok {
			return fmt.Errorf("logging.stage_overrides.%s: unknown level %q", phase, level)
		}
	}
	return nil
}

// RuleProblems compiles every configured regex rule and reports the ones
// that are malformed. Malformed rules do not fail a run; they only ever
// produce empty values.
func (c *Config) RuleProblems() []string {
	rules := []struct {
		name string
		rule tokens.Rule
	}{
		{"matching.key_pattern", tokens.Rule{Pattern: c.Matching.KeyPattern, Replacement: c.Matching.KeyReplacement}},
		{"matching.media_key_pattern", tokens.Rule{Pattern: c.Matching.MediaKeyPattern, Replacement: c.Matching.MediaKeyReplacement}},
		{"grouping.group_pattern", tokens.Rule{Pattern: c.Grouping.GroupPattern}},
		{"grouping.sort_pattern", tokens.Rule{Pattern: c.Grouping.SortPattern}},
		{"batches.pattern", tokens.Rule{Pattern: c.Batches.Pattern}},
		{"media.pattern", tokens.Rule{Pattern: c.Media.Pattern}},
		{"reel", c.Reel.Rule()},
		{"clip", c.Clip.Rule()},
		{"clip_path", c.ClipPath.Rule()},
	}
	for i, f := range c.SkipFilters {
		rules = append(rules, struct {
			name string
			rule tokens.Rule
		}{fmt.Sprintf("skip_filters[%d]", i), tokens.Rule{Pattern: f.Pattern, Replacement: f.Replacement}})
	}

	var problems []string
	for _, r := range rules {
		if err := tokens.Compile(r.rule).Err(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", r.name, err))
		}
	}
	return problems
}

// Rule converts the line rule to a token rule.
func (r LineRule) Rule() tokens.Rule {
	return tokens.Rule{Template: r.SourceTemplate, Pattern: r.Pattern, Replacement: r.Replacement}
}
