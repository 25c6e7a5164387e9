package matching

import (
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"edlmatch/internal/editindex"
	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
	"edlmatch/internal/media"
	"edlmatch/internal/tokens"
)

// Options configures an Engine.
type Options struct {
	SourceColumn   string
	KeyPattern     string
	KeyReplacement string

	MediaTemplate       string
	MediaKeyPattern     string
	MediaKeyReplacement string

	MatchTimecode    bool
	UnicodeNormalize bool
}

// Match pairs one media item with the record it satisfied.
type Match struct {
	Item   *media.Item
	Record *editindex.Record
	Batch  *editindex.Batch
}

// Outcome is the result of one reconciliation.
type Outcome struct {
	Matches   []Match
	Unmatched []*media.Item
}

// Engine holds the compiled key rules.
type Engine struct {
	opts      Options
	recordKey *tokens.Compiled
	mediaKey  *tokens.Compiled
	logger    *slog.Logger
}

// New compiles both key rules once. Malformed rules are logged and yield
// empty keys, so nothing matches.
func New(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MediaTemplate == "" {
		opts.MediaTemplate = "{name}"
	}
	return &Engine{
		opts:   opts,
		logger: logger,
		recordKey: tokens.CompileLogged(tokens.Rule{
			Pattern:     opts.KeyPattern,
			Replacement: opts.KeyReplacement,
		}, "matching.key_pattern", logger),
		mediaKey: tokens.CompileLogged(tokens.Rule{
			Template:    opts.MediaTemplate,
			Pattern:     opts.MediaKeyPattern,
			Replacement: opts.MediaKeyReplacement,
		}, "matching.media_key_pattern", logger),
	}
}

func (e *Engine) normalize(key string) string {
	if e.opts.UnicodeNormalize {
		return norm.NFC.String(key)
	}
	return key
}

// DeriveRecordKeys resets every record key and recomputes it for records
// that are not skipped. It returns the number of records with a key.
func (e *Engine) DeriveRecordKeys(batches []*editindex.Batch) int {
	for _, b := range batches {
		for _, rec := range b.Records {
			rec.MatchKey = ""
		}
	}
	keyed := 0
	for _, b := range batches {
		for _, rec := range b.Records {
			if rec.Skip {
				continue
			}
			result := e.recordKey.ApplyTo(rec.Value(e.opts.SourceColumn), nil)
			if !result.OK() {
				continue
			}
			rec.MatchKey = e.normalize(result.Value)
			keyed++
		}
	}
	return keyed
}

// DeriveItemKeys computes the match key of every item from its name tokens.
// Items whose key comes out empty are logged; they can never match.
func (e *Engine) DeriveItemKeys(items []*media.Item) int {
	keyed := 0
	for _, item := range items {
		item.MatchKey = ""
		result := e.mediaKey.Apply(item.Name)
		if !result.OK() {
			if e.mediaKey.Err() == nil {
				logging.WarnWithContext(e.logger, "media key empty; file cannot match", "media_key_empty",
					logging.String(logging.FieldMediaPath, item.Path),
					logging.String(logging.FieldRule, "matching.media_key_pattern"),
					logging.String(logging.FieldErrorHint, "check matching.media_template and media_key_pattern"),
				)
			}
			continue
		}
		item.MatchKey = e.normalize(result.Value)
		keyed++
	}
	return keyed
}

// Reconcile matches items against batches. Both collections must be
// non-empty. Record keys must already be derived; item keys are derived here.
func (e *Engine) Reconcile(batches []*editindex.Batch, items []*media.Item) (Outcome, error) {
	if len(items) == 0 {
		return Outcome{}, failure.Wrap(failure.ErrEmptyCollection, "match", "reconcile", "no media items to match", nil)
	}
	if len(batches) == 0 {
		return Outcome{}, failure.Wrap(failure.ErrEmptyCollection, "match", "reconcile", "no batches to match", nil)
	}
	e.DeriveItemKeys(items)

	var outcome Outcome
	for _, item := range items {
		m, ok := e.find(batches, item)
		if !ok {
			outcome.Unmatched = append(outcome.Unmatched, item)
			e.logger.Debug("no record matches media item",
				logging.String(logging.FieldMediaPath, item.Path),
				logging.String("key", item.MatchKey),
			)
			continue
		}
		outcome.Matches = append(outcome.Matches, m)
		e.logger.Debug("media item matched",
			logging.String(logging.FieldMediaPath, item.Path),
			logging.String(logging.FieldBatch, m.Batch.Name()),
			logging.Int(logging.FieldLine, m.Record.Line),
		)
	}

	e.logger.Info("matching complete",
		logging.Int("media_items", len(items)),
		logging.Int("matched", len(outcome.Matches)),
		logging.Int("unmatched", len(outcome.Unmatched)),
	)
	if len(outcome.Unmatched) > 0 {
		logging.WarnWithContext(e.logger, "media items not matched to any record", "media_unmatched",
			logging.Int("count", len(outcome.Unmatched)),
			logging.String(logging.FieldImpact, "unmatched files are left out of the EDLs"),
			logging.String(logging.FieldErrorHint, "run with --log-level debug to list the unmatched keys"),
		)
	}
	return outcome, nil
}

func (e *Engine) find(batches []*editindex.Batch, item *media.Item) (Match, bool) {
	if item.MatchKey == "" {
		return Match{}, false
	}
	for _, b := range batches {
		for _, rec := range b.Records {
			if rec.Skip || rec.MatchKey == "" || rec.MatchKey != item.MatchKey {
				continue
			}
			if e.opts.MatchTimecode && !Contains(rec, item) {
				e.logger.Debug("record key matches but timecode range does not",
					logging.String(logging.FieldMediaPath, item.Path),
					logging.String(logging.FieldBatch, b.Name()),
					logging.Int(logging.FieldLine, rec.Line),
				)
				continue
			}
			return Match{Item: item, Record: rec, Batch: b}, true
		}
	}
	return Match{}, false
}

// Contains reports whether the record's source range lies within the item's
// source range. All four bounds must be present.
func Contains(rec *editindex.Record, item *media.Item) bool {
	in, out := item.Meta.In, item.Meta.Out
	if !rec.SourceIn.Valid || !rec.SourceOut.Valid || !in.Valid || !out.Valid {
		return false
	}
	return rec.SourceIn.Value >= in.Value && rec.SourceOut.Value <= out.Value
}

// Run derives record keys and reconciles. It is safe to call repeatedly.
func (e *Engine) Run(batches []*editindex.Batch, items []*media.Item) (Outcome, error) {
	e.DeriveRecordKeys(batches)
	return e.Reconcile(batches, items)
}
