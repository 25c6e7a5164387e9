package pipeline

import (
	"context"
	"errors"

	"edlmatch/internal/discovery"
	"edlmatch/internal/editindex"
	"edlmatch/internal/edl"
	"edlmatch/internal/failure"
	"edlmatch/internal/grouping"
	"edlmatch/internal/logging"
	"edlmatch/internal/matching"
	"edlmatch/internal/media"
	"edlmatch/internal/probecache"
)

// Stage is one named step of a run.
type Stage struct {
	Name string
	Run  func(context.Context, *State) error
}

// Stages returns the full ordered stage list.
func Stages() []Stage {
	return []Stage{
		{Name: "load", Run: Load},
		{Name: "normalize", Run: Normalize},
		{Name: "group", Run: Group},
		{Name: "discover", Run: Discover},
		{Name: "probe", Run: Probe},
		{Name: "match", Run: Match},
		{Name: "render", Run: Render},
		{Name: "write", Run: Write},
	}
}

// Load lists the batch root and parses every edit index. Files that cannot
// be parsed are logged and recorded as rejected; the stage fails when none
// are found or none can be read.
func Load(_ context.Context, s *State) error {
	paths, err := discovery.List(s.Config.Batches.Root, BatchFilter(s.Config), s.Logger)
	if err != nil {
		return err
	}
	s.Report.BatchFiles = len(paths)
	if len(paths) == 0 {
		return failure.Wrap(failure.ErrEmptyCollection, "load", "list edit indexes",
			"no edit index files under "+s.Config.Batches.Root, nil)
	}

	for _, path := range paths {
		batch, err := editindex.Load(path)
		if err != nil {
			logging.WarnWithContext(s.Logger, "edit index could not be read", "batch_load_failed",
				logging.String(logging.FieldBatch, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "records from this file are not matched"),
			)
			s.Report.Rejected = append(s.Report.Rejected, Rejection{Path: path, Reason: err.Error()})
			continue
		}
		s.Batches = append(s.Batches, batch)
	}
	s.Report.BatchesLoaded = len(s.Batches)
	s.Logger.Info("edit indexes loaded",
		logging.Int("files", len(paths)),
		logging.Int("batches", len(s.Batches)),
		logging.Int("records", editindex.CountRecords(s.Batches)),
	)
	if len(s.Batches) == 0 {
		return failure.Wrap(failure.ErrEmptyCollection, "load", "read edit indexes", "no edit index could be read", nil)
	}
	return nil
}

// Normalize renames columns, converts timecodes, applies skip filters and
// drops batches that fail admission.
func Normalize(_ context.Context, s *State) error {
	normalizer := editindex.NewNormalizer(NormalizerOptions(s.Config), s.Logger)
	admitted := s.Batches[:0]
	for _, batch := range s.Batches {
		eligible := normalizer.Normalize(batch)
		if err := normalizer.Admit(batch, eligible); err != nil {
			logging.WarnWithContext(s.Logger, "edit index skipped", "batch_rejected",
				logging.String(logging.FieldBatch, batch.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "records from this file are not matched"),
				logging.String(logging.FieldErrorHint, "check the header row and skip_filters"),
			)
			s.Report.Rejected = append(s.Report.Rejected, Rejection{Path: batch.Path, Reason: err.Error()})
			continue
		}
		s.Report.Records += len(batch.Records)
		s.Report.Eligible += eligible
		admitted = append(admitted, batch)
	}
	s.Batches = admitted
	s.Report.BatchesAdmitted = len(admitted)
	if len(admitted) == 0 {
		return failure.Wrap(failure.ErrEmptyCollection, "normalize", "admit batches", "no edit index has valid lines", nil)
	}
	return nil
}

// Group applies versioned batch grouping.
func Group(_ context.Context, s *State) error {
	s.Batches, s.Groups = grouping.Apply(s.Batches, GroupingOptions(s.Config), s.Logger)
	s.Report.BatchesGrouped = len(s.Batches)
	if len(s.Groups) > 0 {
		s.Logger.Info("batches grouped",
			logging.Int("groups", len(s.Groups)),
			logging.Int("batches", len(s.Batches)),
		)
	}
	return nil
}

// Discover lists the media root and fails when it holds no media.
func Discover(_ context.Context, s *State) error {
	paths, err := discovery.List(s.Config.Media.Root, MediaFilter(s.Config), s.Logger)
	if err != nil {
		return err
	}
	s.MediaPaths = paths
	s.Report.MediaFiles = len(paths)
	if len(paths) == 0 {
		return failure.Wrap(failure.ErrEmptyCollection, "discover", "list media",
			"no media files under "+s.Config.Media.Root, nil)
	}
	return nil
}

// Probe builds a media item per discovered file. A file that cannot be
// probed keeps its name tokens and the error, so key matching still works.
func Probe(ctx context.Context, s *State) error {
	if s.Prober == nil {
		return failure.Wrap(failure.ErrConfiguration, "probe", "probe media", "no prober configured", nil)
	}
	items := make([]*media.Item, 0, len(s.MediaPaths))
	for _, path := range s.MediaPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := media.NewItem(path)
		items = append(items, item)

		result, err := s.Prober.Probe(ctx, path)
		if err == nil {
			item.Meta, err = media.FromProbe(path, result)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			item.ProbeErr = err
			logging.WarnWithContext(s.Logger, "media probe failed", "probe_failed",
				logging.String(logging.FieldMediaPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "timecode tokens and range checks are unavailable for this file"),
			)
			s.Report.ProbeFailures = append(s.Report.ProbeFailures, Rejection{Path: path, Reason: err.Error()})
			continue
		}
		s.Logger.Debug("media probed",
			logging.String(logging.FieldMediaPath, path),
			logging.String("timecode", item.Meta.Timecode),
			logging.Int("duration_frames", item.Meta.DurationFrames),
		)
	}
	s.Items = items
	if cached, ok := s.Prober.(*probecache.Prober); ok {
		s.Report.CacheHits = cached.Hits
		s.Report.CacheMisses = cached.Misses
	}
	return nil
}

// Match derives keys and reconciles media items against records.
func Match(_ context.Context, s *State) error {
	outcome, err := matching.New(MatchingOptions(s.Config), s.Logger).Run(s.Batches, s.Items)
	if err != nil {
		return err
	}
	s.Outcome = outcome
	s.Report.Matched = len(outcome.Matches)
	s.Report.Unmatched = outcome.Unmatched
	return nil
}

// Render builds one document per batch with at least one match.
func Render(_ context.Context, s *State) error {
	s.Documents = edl.Render(s.Outcome.Matches, RenderOptions(s.Config), s.Logger)
	s.Report.Documents = s.Documents
	return nil
}

// Write persists the rendered documents. It fails only when every document
// failed to write.
func Write(_ context.Context, s *State) error {
	s.Report.WriteFailures = edl.Write(s.Documents, s.Logger)
	if s.Report.AllWritesFailed() {
		return failure.Wrap(failure.ErrValidation, "write", "write edls", "no EDL could be written", s.Report.WriteFailures[0].Err)
	}
	return nil
}
