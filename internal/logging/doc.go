// Package logging assembles the structured slog loggers used by every
// edlmatch phase.
//
// It owns the console and JSON handlers, the standard field keys (phase,
// batch, line, media_path, document, rule), the run id handler that stamps
// each record of one run, per-phase level overrides, a warning counter that
// feeds the run report, and log retention. A no-op logger is provided for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so fail-soft paths
// (malformed rules, unmatched media, failed writes) stay distinguishable by
// phase and identifier.
package logging
