package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"edlmatch/internal/failure"
	"edlmatch/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Batches configures edit-index CSV discovery and admission.
type Batches struct {
	Root                 string            `toml:"root" yaml:"root"`
	Include              string            `toml:"include" yaml:"include"`
	Exclude              string            `toml:"exclude" yaml:"exclude"`
	Pattern              string            `toml:"pattern" yaml:"pattern"`
	Recursive            bool              `toml:"recursive" yaml:"recursive"`
	CheckRequiredColumns bool              `toml:"check_required_columns" yaml:"check_required_columns"`
	RequiredColumns      []string          `toml:"required_columns" yaml:"required_columns"`
	Rename               map[string]string `toml:"rename" yaml:"rename"`
}

// SkipFilter excludes records from matching.
type SkipFilter struct {
	Column      string `toml:"column" yaml:"column"`
	Pattern     string `toml:"pattern" yaml:"pattern"`
	Replacement string `toml:"replacement" yaml:"replacement"`
	Equals      string `toml:"equals" yaml:"equals"`
	Invert      bool   `toml:"invert" yaml:"invert"`
}

// Grouping configures versioned batch grouping.
type Grouping struct {
	GroupPattern string `toml:"group_pattern" yaml:"group_pattern"`
	SortPattern  string `toml:"sort_pattern" yaml:"sort_pattern"`
	HighestOnly  bool   `toml:"highest_only" yaml:"highest_only"`
}

// Media configures media file discovery.
type Media struct {
	Root      string `toml:"root" yaml:"root"`
	Include   string `toml:"include" yaml:"include"`
	Exclude   string `toml:"exclude" yaml:"exclude"`
	Pattern   string `toml:"pattern" yaml:"pattern"`
	Recursive bool   `toml:"recursive" yaml:"recursive"`
}

// Matching configures key derivation and temporal validation.
type Matching struct {
	SourceColumn        string `toml:"source_column" yaml:"source_column"`
	KeyPattern          string `toml:"key_pattern" yaml:"key_pattern"`
	KeyReplacement      string `toml:"key_replacement" yaml:"key_replacement"`
	MediaTemplate       string `toml:"media_template" yaml:"media_template"`
	MediaKeyPattern     string `toml:"media_key_pattern" yaml:"media_key_pattern"`
	MediaKeyReplacement string `toml:"media_key_replacement" yaml:"media_key_replacement"`
	MatchTimecode       bool   `toml:"match_timecode" yaml:"match_timecode"`
	UnicodeNormalize    bool   `toml:"unicode_normalize" yaml:"unicode_normalize"`
}

// Output configures EDL formatting and document paths.
type Output struct {
	FrameRate           float64 `toml:"frame_rate" yaml:"frame_rate"`
	DropFrame           bool    `toml:"drop_frame" yaml:"drop_frame"`
	MaxReelWidth        int     `toml:"max_reel_width" yaml:"max_reel_width"`
	CustomRoot          string  `toml:"custom_root" yaml:"custom_root"`
	UseMediaRoot        bool    `toml:"use_media_root" yaml:"use_media_root"`
	UseMediaRootUp      bool    `toml:"use_media_root_up" yaml:"use_media_root_up"`
	NameCustom          string  `toml:"name_custom" yaml:"name_custom"`
	NameFromBatch       bool    `toml:"name_from_batch" yaml:"name_from_batch"`
	NameFromMediaFolder bool    `toml:"name_from_media_folder" yaml:"name_from_media_folder"`
	NamePrefix          string  `toml:"name_prefix" yaml:"name_prefix"`
	NameSuffix          string  `toml:"name_suffix" yaml:"name_suffix"`
}

// LineRule derives one EDL field (reel, clip name, clip path).
type LineRule struct {
	SourceTemplate string `toml:"source_template" yaml:"source_template"`
	Pattern        string `toml:"pattern" yaml:"pattern"`
	Replacement    string `toml:"replacement" yaml:"replacement"`
	Export         bool   `toml:"export" yaml:"export"`
}

// Probe configures the ffprobe collaborator and its result cache.
type Probe struct {
	Binary         string `toml:"binary" yaml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
	CacheEnabled   bool   `toml:"cache_enabled" yaml:"cache_enabled"`
	CachePath      string `toml:"cache_path" yaml:"cache_path"`
}

// Paths contains state directories.
type Paths struct {
	StateDir string `toml:"state_dir" yaml:"state_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format" yaml:"format"`
	Level          string            `toml:"level" yaml:"level"`
	Dir            string            `toml:"dir" yaml:"dir"`
	RetentionDays  int               `toml:"retention_days" yaml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides" yaml:"stage_overrides"`
}

// Config encapsulates all configuration values for edlmatch.
//
// Configuration sections by pipeline phase:
//   - Batches, SkipFilters, Grouping: which CSV files and rows take part
//   - Media, Probe: which media files are considered and how they are probed
//   - Matching: how record and media keys are derived and compared
//   - Output, Reel, Clip, ClipPath: EDL layout and destination
//   - Paths, Logging: state directory and log output
type Config struct {
	Batches     Batches      `toml:"batches" yaml:"batches"`
	SkipFilters []SkipFilter `toml:"skip_filters" yaml:"skip_filters"`
	Grouping    Grouping     `toml:"grouping" yaml:"grouping"`
	Media       Media        `toml:"media" yaml:"media"`
	Matching    Matching     `toml:"matching" yaml:"matching"`
	Output      Output       `toml:"output" yaml:"output"`
	Reel        LineRule     `toml:"reel" yaml:"reel"`
	Clip        LineRule     `toml:"clip" yaml:"clip"`
	ClipPath    LineRule     `toml:"clip_path" yaml:"clip_path"`
	Probe       Probe        `toml:"probe" yaml:"probe"`
	Paths       Paths        `toml:"paths" yaml:"paths"`
	Logging     Logging      `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/edlmatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Files ending in .yaml or .yml are read as YAML.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: parse config %s: %w", failure.ErrConfiguration, resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", failure.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", failure.ErrConfiguration, err)
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("edlmatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the run lock guarding concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "edlmatch.lock")
}

// FFprobeBinary returns the ffprobe executable used for media metadata.
func (c *Config) FFprobeBinary() string {
	if c.Probe.Binary == "" {
		return defaultFFprobeBinary
	}
	return c.Probe.Binary
}

// RequireRoots checks that both discovery roots are set. It is separate from
// Validate because the CLI may supply roots after the config is loaded.
func (c *Config) RequireRoots() error {
	if strings.TrimSpace(c.Batches.Root) == "" {
		return fmt.Errorf("%w: batches.root must be set (config, EDLMATCH_BATCH_ROOT or -i)", failure.ErrConfiguration)
	}
	if strings.TrimSpace(c.Media.Root) == "" {
		return fmt.Errorf("%w: media.root must be set (config, EDLMATCH_MEDIA_ROOT or -m)", failure.ErrConfiguration)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the embedded sample configuration.
func Sample() string {
	return sampleConfig
}

// Marshal renders c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
