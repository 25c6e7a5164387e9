// Package pipeline runs one reconciliation from edit indexes and media files
// to written EDL documents.
//
// A run is an ordered list of stages sharing a single State value:
//
//	load → normalize → group → discover → probe → match → render → write
//
// Each stage reads what the earlier stages left on the State and appends its
// own results, so tests can run a prefix of the list and inspect the State.
// The Runner tags every stage with its own phase logger (honouring
// logging.stage_overrides), logs start and completion, and collects counts
// into a Report for the CLI summary.
//
// Per-file problems (unreadable CSVs, rejected batches, failed probes,
// failed writes) are logged and recorded on the Report without stopping the
// run. Unreachable roots, empty collections at match time, and a run where
// every document failed to write are returned as errors.
package pipeline
