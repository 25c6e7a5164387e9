package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPhase names the pipeline phase (load, normalize, group, discover, probe, match, render, write).
	FieldPhase = "phase"
	// FieldBatch carries the batch (CSV file) path a record belongs to.
	FieldBatch = "batch"
	// FieldLine is the 1-based data row within a batch.
	FieldLine = "line"
	// FieldMediaPath carries the media file path being processed.
	FieldMediaPath = "media_path"
	// FieldDocument carries the output document path.
	FieldDocument = "document"
	// FieldRule names the configured rule (reel, clip, record_key, skip_filter[0]...).
	FieldRule = "rule"
	// FieldRunID is stamped on every record of one pipeline run.
	FieldRunID = "run_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey string

const phaseKey contextKey = "phase"

// WithPhase annotates ctx with the pipeline phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext extracts the pipeline phase if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	phase, ok := ctx.Value(phaseKey).(string)
	return phase, ok && phase != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if phase, ok := PhaseFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldPhase, phase)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
