package editindex

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
	"edlmatch/internal/timecode"
	"edlmatch/internal/tokens"
)

// SkipFilter marks records whose column value, after applying the rule,
// equals (or with Invert, differs from) Equals.
type SkipFilter struct {
	Column      string
	Pattern     string
	Replacement string
	Equals      string
	Invert      bool
}

// Options configures a Normalizer.
type Options struct {
	// Rename maps target column names to the source column they replace.
	Rename      map[string]string
	FrameRate   float64
	SkipFilters []SkipFilter

	CheckRequiredColumns bool
	RequiredColumns      []string
}

type compiledFilter struct {
	filter SkipFilter
	rule   *tokens.Compiled
}

// Normalizer applies column renaming, frame conversion and skip filters.
type Normalizer struct {
	opts    Options
	sources map[string]string
	filters []compiledFilter
	logger  *slog.Logger
}

// NewNormalizer compiles the skip filters once. A filter whose pattern does
// not compile is logged and never contributes.
func NewNormalizer(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	n := &Normalizer{opts: opts, logger: logger, sources: make(map[string]string, len(opts.Rename))}
	// First target in sorted order wins when a source is reused, so the
	// mapping is stable across runs.
	for _, target := range slices.Sorted(maps.Keys(opts.Rename)) {
		source := opts.Rename[target]
		if strings.TrimSpace(source) == "" || source == target {
			continue
		}
		if _, taken := n.sources[source]; !taken {
			n.sources[source] = target
		}
	}
	for i, f := range opts.SkipFilters {
		rule := tokens.Rule{Pattern: f.Pattern, Replacement: f.Replacement}
		n.filters = append(n.filters, compiledFilter{
			filter: f,
			rule:   tokens.CompileLogged(rule, fmt.Sprintf("skip_filters[%d]", i), logger),
		})
	}
	return n
}

// Normalize rewrites every record of batch in place and returns the number
// of records that remain eligible for matching.
func (n *Normalizer) Normalize(batch *Batch) int {
	eligible := 0
	for i, rec := range batch.Records {
		batch.Records[i] = n.normalizeRecord(batch, rec)
		if !batch.Records[i].Skip {
			eligible++
		}
	}
	return eligible
}

func (n *Normalizer) normalizeRecord(batch *Batch, rec *Record) *Record {
	out := &Record{Line: rec.Line}
	// On a name collision the later column wins.
	for _, col := range rec.columns {
		name := col
		if target, ok := n.sources[col]; ok {
			name = target
		}
		out.Set(name, rec.values[col])
	}

	for _, col := range TimecodeColumns {
		out.setFrames(col, n.frames(batch, out, col))
	}

	out.Skip = n.skip(out)
	out.MatchKey = ""
	return out
}

func (n *Normalizer) frames(batch *Batch, rec *Record, column string) timecode.Frames {
	raw := strings.TrimSpace(rec.Value(column))
	if raw == "" {
		return timecode.Frames{}
	}
	value, err := timecode.ToFrames(raw, n.opts.FrameRate)
	if err != nil {
		logging.WarnWithContext(n.logger, "timecode not convertible; field left empty", "timecode_invalid",
			logging.String(logging.FieldBatch, batch.Name()),
			logging.Int(logging.FieldLine, rec.Line),
			logging.String("column", column),
			logging.String("value", raw),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the CSV timecode format and output.frame_rate"),
			logging.String(logging.FieldImpact, "record cannot pass temporal validation"),
		)
		return timecode.Frames{}
	}
	return timecode.FramesOf(value)
}

func (n *Normalizer) skip(rec *Record) bool {
	hits := 0
	for _, cf := range n.filters {
		if cf.rule.Err() != nil || cf.filter.Equals == "" {
			continue
		}
		result := cf.rule.ApplyTo(rec.Value(cf.filter.Column), nil)
		if !result.OK() || result.Value == "" {
			continue
		}
		equal := result.Value == cf.filter.Equals
		if equal != cf.filter.Invert {
			hits++
		}
	}
	return hits > 0
}

// Admit reports whether a normalized batch may take part in matching. A batch
// with no eligible records, or one missing a required column when the check
// is enabled, is rejected with a validation error.
func (n *Normalizer) Admit(batch *Batch, eligible int) error {
	if len(batch.Records) == 0 || eligible == 0 {
		return failure.Wrap(failure.ErrValidation, "normalize", "admit batch", batch.Name()+" has no valid lines", nil)
	}
	if !n.opts.CheckRequiredColumns {
		return nil
	}
	if missing := batch.Records[0].MissingColumns(n.opts.RequiredColumns); len(missing) > 0 {
		return failure.Wrap(failure.ErrValidation, "normalize", "admit batch",
			fmt.Sprintf("%s is missing required column(s) %s", batch.Name(), strings.Join(missing, ", ")), nil)
	}
	return nil
}
