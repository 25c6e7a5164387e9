package edl

import (
	"log/slog"

	"edlmatch/internal/failure"
	"edlmatch/internal/fileutil"
	"edlmatch/internal/logging"
)

// WriteFailure records a document that could not be written.
type WriteFailure struct {
	Document Document
	Err      error
}

// Write persists every document, creating directories on demand. Failures
// are logged and collected; the remaining documents are still written.
func Write(docs []Document, logger *slog.Logger) []WriteFailure {
	if logger == nil {
		logger = logging.NewNop()
	}
	var failures []WriteFailure
	for _, doc := range docs {
		if err := fileutil.WriteFileAtomic(doc.Path, []byte(doc.Content), 0o644); err != nil {
			wrapped := failure.Wrap(failure.ErrValidation, "write", "write edl", doc.Path, err)
			logging.ErrorWithContext(logger, "failed to write edl", "edl_write_failed",
				logging.String(logging.FieldDocument, doc.Path),
				logging.Error(wrapped),
				logging.String(logging.FieldErrorHint, "check that the output directory is writable"),
				logging.String(logging.FieldImpact, "this EDL is missing from the output"),
			)
			failures = append(failures, WriteFailure{Document: doc, Err: wrapped})
			continue
		}
		logger.Info("edl written",
			logging.String(logging.FieldDocument, doc.Path),
			logging.Int("events", doc.Events),
		)
	}
	return failures
}
