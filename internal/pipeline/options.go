package pipeline

import (
	"time"

	"edlmatch/internal/config"
	"edlmatch/internal/discovery"
	"edlmatch/internal/editindex"
	"edlmatch/internal/edl"
	"edlmatch/internal/grouping"
	"edlmatch/internal/matching"
	"edlmatch/internal/media/ffprobe"
)

// BatchFilter selects edit-index files under the batch root.
func BatchFilter(cfg *config.Config) discovery.Filter {
	return discovery.Filter{
		Include:   cfg.Batches.Include,
		Exclude:   cfg.Batches.Exclude,
		Pattern:   cfg.Batches.Pattern,
		Recursive: cfg.Batches.Recursive,
	}
}

// MediaFilter selects media files under the media root.
func MediaFilter(cfg *config.Config) discovery.Filter {
	return discovery.Filter{
		Include:   cfg.Media.Include,
		Exclude:   cfg.Media.Exclude,
		Pattern:   cfg.Media.Pattern,
		Recursive: cfg.Media.Recursive,
	}
}

// NormalizerOptions maps the batch and skip filter sections.
func NormalizerOptions(cfg *config.Config) editindex.Options {
	filters := make([]editindex.SkipFilter, 0, len(cfg.SkipFilters))
	for _, f := range cfg.SkipFilters {
		filters = append(filters, editindex.SkipFilter{
			Column:      f.Column,
			Pattern:     f.Pattern,
			Replacement: f.Replacement,
			Equals:      f.Equals,
			Invert:      f.Invert,
		})
	}
	return editindex.Options{
		Rename:               cfg.Batches.Rename,
		FrameRate:            cfg.Output.FrameRate,
		SkipFilters:          filters,
		CheckRequiredColumns: cfg.Batches.CheckRequiredColumns,
		RequiredColumns:      cfg.Batches.RequiredColumns,
	}
}

// GroupingOptions maps the grouping section.
func GroupingOptions(cfg *config.Config) grouping.Options {
	return grouping.Options{
		GroupPattern: cfg.Grouping.GroupPattern,
		SortPattern:  cfg.Grouping.SortPattern,
		HighestOnly:  cfg.Grouping.HighestOnly,
	}
}

// MatchingOptions maps the matching section.
func MatchingOptions(cfg *config.Config) matching.Options {
	m := cfg.Matching
	return matching.Options{
		SourceColumn:        m.SourceColumn,
		KeyPattern:          m.KeyPattern,
		KeyReplacement:      m.KeyReplacement,
		MediaTemplate:       m.MediaTemplate,
		MediaKeyPattern:     m.MediaKeyPattern,
		MediaKeyReplacement: m.MediaKeyReplacement,
		MatchTimecode:       m.MatchTimecode,
		UnicodeNormalize:    m.UnicodeNormalize,
	}
}

// RenderOptions maps the output section and the three line rules.
func RenderOptions(cfg *config.Config) edl.Options {
	o := cfg.Output
	return edl.Options{
		DropFrame:           o.DropFrame,
		MaxReelWidth:        o.MaxReelWidth,
		Reel:                lineRule(cfg.Reel),
		Clip:                lineRule(cfg.Clip),
		ClipPath:            lineRule(cfg.ClipPath),
		CustomRoot:          o.CustomRoot,
		UseMediaRoot:        o.UseMediaRoot,
		UseMediaRootUp:      o.UseMediaRootUp,
		NameCustom:          o.NameCustom,
		NameFromBatch:       o.NameFromBatch,
		NameFromMediaFolder: o.NameFromMediaFolder,
		NamePrefix:          o.NamePrefix,
		NameSuffix:          o.NameSuffix,
	}
}

func lineRule(r config.LineRule) edl.LineRule {
	return edl.LineRule{Rule: r.Rule(), Export: r.Export}
}

// Inspector builds the ffprobe prober for cfg.
func Inspector(cfg *config.Config) ffprobe.Inspector {
	return ffprobe.Inspector{
		Binary:  cfg.FFprobeBinary(),
		Timeout: time.Duration(cfg.Probe.TimeoutSeconds) * time.Second,
	}
}
