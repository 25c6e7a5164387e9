package pipeline

import (
	"log/slog"
	"time"

	"edlmatch/internal/config"
	"edlmatch/internal/editindex"
	"edlmatch/internal/edl"
	"edlmatch/internal/grouping"
	"edlmatch/internal/matching"
	"edlmatch/internal/media"
	"edlmatch/internal/media/ffprobe"
)

// State is the value threaded through every stage of a run.
type State struct {
	Config *config.Config
	Prober ffprobe.Prober
	// Logger is replaced with the phase logger before each stage runs.
	Logger *slog.Logger

	Batches    []*editindex.Batch
	Groups     []grouping.Group
	MediaPaths []string
	Items      []*media.Item
	Outcome    matching.Outcome
	Documents  []edl.Document

	Report *Report
}

// Rejection explains why a batch or media item was left out.
type Rejection struct {
	Path   string
	Reason string
}

// Report summarizes a run for the CLI.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration

	BatchFiles      int
	BatchesLoaded   int
	BatchesAdmitted int
	BatchesGrouped  int
	Records         int
	Eligible        int
	Rejected        []Rejection

	MediaFiles    int
	ProbeFailures []Rejection
	CacheHits     int
	CacheMisses   int

	Matched   int
	Unmatched []*media.Item

	Documents     []edl.Document
	WriteFailures []edl.WriteFailure
}

// DocumentsWritten is the number of documents persisted successfully.
func (r *Report) DocumentsWritten() int {
	return len(r.Documents) - len(r.WriteFailures)
}

// AllWritesFailed reports whether documents were rendered but none written.
func (r *Report) AllWritesFailed() bool {
	return len(r.Documents) > 0 && len(r.WriteFailures) == len(r.Documents)
}
