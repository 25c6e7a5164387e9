package config

const (
	defaultStateDir         = "~/.local/share/edlmatch"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultFFprobeBinary    = "ffprobe"
	defaultProbeTimeout     = 30
	defaultFrameRate        = 24
	defaultMaxReelWidth     = 8
	defaultMediaTemplate    = "{name}"
	defaultSourceColumn     = "Name"
	defaultKeyPattern       = `^([^.]+)`
	defaultBatchInclude     = ".csv"
	defaultProbeCacheName   = "probe-cache.db"
	defaultLogDirName       = "logs"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Batches: Batches{
			Include:              defaultBatchInclude,
			Recursive:            false,
			CheckRequiredColumns: true,
			RequiredColumns:      []string{"source_in", "source_out", "record_in", "record_out"},
			Rename: map[string]string{
				"source_in":  "Source In",
				"source_out": "Source Out",
				"record_in":  "Record In",
				"record_out": "Record Out",
			},
		},
		Grouping: Grouping{
			HighestOnly: true,
		},
		Matching: Matching{
			SourceColumn:     defaultSourceColumn,
			KeyPattern:       defaultKeyPattern,
			MediaTemplate:    defaultMediaTemplate,
			MediaKeyPattern:  defaultKeyPattern,
			UnicodeNormalize: true,
		},
		Output: Output{
			FrameRate:     defaultFrameRate,
			MaxReelWidth:  defaultMaxReelWidth,
			UseMediaRoot:  true,
			NameFromBatch: true,
		},
		Reel: LineRule{
			SourceTemplate: "{Reel}",
			Pattern:        `^(.+)$`,
		},
		Clip: LineRule{
			SourceTemplate: "* FROM CLIP NAME: {media_file}",
			Pattern:        `^(.+)$`,
			Export:         true,
		},
		ClipPath: LineRule{
			SourceTemplate: "* SOURCE FILE: {media_path}",
			Pattern:        `^(.+)$`,
		},
		Probe: Probe{
			Binary:         defaultFFprobeBinary,
			TimeoutSeconds: defaultProbeTimeout,
			CacheEnabled:   true,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format:         defaultLogFormat,
			Level:          defaultLogLevel,
			RetentionDays:  defaultLogRetentionDays,
			StageOverrides: map[string]string{},
		},
	}
}
