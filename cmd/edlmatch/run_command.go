package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"edlmatch/internal/config"
	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
	"edlmatch/internal/media/ffprobe"
	"edlmatch/internal/pipeline"
	"edlmatch/internal/preflight"
	"edlmatch/internal/probecache"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var batchRoot string
	var mediaRoot string
	var jsonOutput bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Match media files against edit indexes and write EDLs",
		Long: "Load every edit index under the batch root, probe every media file under the\n" +
			"media root, match them by key (and optionally by source timecode range), and\n" +
			"write one EDL per edit index that received at least one match.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.SetRoots(batchRoot, mediaRoot); err != nil {
				return err
			}
			if err := cfg.RequireRoots(); err != nil {
				return err
			}

			if !skipPreflight {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
					return preflightError(failed)
				}
			}

			runID := uuid.NewString()
			logger, err := ctx.logger(cfg, runID)
			if err != nil {
				return err
			}
			logger, counter := logging.WithWarningCounter(logger)

			var report *pipeline.Report
			runErr := withRunLock(cfg, func() error {
				prober, closeProber := buildProber(cmd, cfg, logger)
				defer closeProber()

				runner := &pipeline.Runner{
					Config: cfg,
					Prober: prober,
					Logger: logger,
					RunID:  runID,
				}
				report, err = runner.Execute(cmd.Context())
				return err
			})

			if report != nil {
				if jsonOutput {
					summary := newRunSummary(report, runErr)
					summary.Warnings, summary.Errors = counter.Total()
					if err := writeJSON(cmd, summary); err != nil {
						return err
					}
				} else {
					printRunReport(cmd.OutOrStdout(), report, counter)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&batchRoot, "batches", "i", "", "Folder holding edit index CSV files (overrides batches.root)")
	cmd.Flags().StringVarP(&mediaRoot, "media", "m", "", "Folder holding media files (overrides media.root)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and ffprobe checks before running")
	return cmd
}

// buildProber wraps the ffprobe inspector with the result cache when it is
// enabled. A cache that cannot be opened is logged and skipped.
func buildProber(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (ffprobe.Prober, func()) {
	inspector := pipeline.Inspector(cfg)
	if !cfg.Probe.CacheEnabled {
		return inspector, func() {}
	}
	store, err := probecache.Open(cmd.Context(), cfg.Probe.CachePath)
	if err != nil {
		logging.WarnWithContext(logger, "probe cache unavailable", "probe_cache_error",
			logging.String("cache_path", cfg.Probe.CachePath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every media file is probed"),
			logging.String(logging.FieldErrorHint, "run `edlmatch cache clear` or delete the cache file"),
		)
		return inspector, func() {}
	}
	cached := &probecache.Prober{Next: inspector, Store: store, Logger: logging.NewComponentLogger(logger, "probecache")}
	return cached, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close probe cache", logging.Error(err))
		}
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

func printRunReport(out io.Writer, report *pipeline.Report, counter *logging.WarningCounter) {
	rows := [][]string{
		{"Edit indexes found", strconv.Itoa(report.BatchFiles)},
		{"Edit indexes admitted", strconv.Itoa(report.BatchesAdmitted)},
		{"Edit indexes after grouping", strconv.Itoa(report.BatchesGrouped)},
		{"Records (eligible)", fmt.Sprintf("%d (%d)", report.Records, report.Eligible)},
		{"Media files", strconv.Itoa(report.MediaFiles)},
		{"Probe cache hits", fmt.Sprintf("%d / %d", report.CacheHits, report.CacheHits+report.CacheMisses)},
		{"Matched", strconv.Itoa(report.Matched)},
		{"Unmatched", strconv.Itoa(len(report.Unmatched))},
		{"EDLs written", strconv.Itoa(report.DocumentsWritten())},
	}
	fmt.Fprintln(out, renderTable(out, []string{"Run", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if counts := counter.Snapshot(); len(counts) > 0 {
		rows := make([][]string, 0, len(counts))
		for _, c := range counts {
			phase := c.Phase
			if phase == "" {
				phase = "run"
			}
			rows = append(rows, []string{phase, strconv.Itoa(c.Warnings), strconv.Itoa(c.Errors)})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Phase", "Warnings", "Errors"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
	}

	if len(report.Documents) > 0 {
		failed := make(map[string]string, len(report.WriteFailures))
		for _, f := range report.WriteFailures {
			failed[f.Document.Path] = f.Err.Error()
		}
		docRows := make([][]string, 0, len(report.Documents))
		for _, doc := range report.Documents {
			status := "written"
			if msg, ok := failed[doc.Path]; ok {
				status = "failed: " + msg
			}
			docRows = append(docRows, []string{doc.Path, strconv.Itoa(doc.Events), status})
		}
		fmt.Fprintln(out, renderTable(out, []string{"EDL", "Events", "Status"}, docRows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	}

	if len(report.Unmatched) > 0 {
		rows := make([][]string, 0, len(report.Unmatched))
		for _, item := range report.Unmatched {
			rows = append(rows, []string{item.Describe()})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Unmatched media (key)"}, rows, nil))
	}

	if len(report.Rejected) > 0 {
		rows := make([][]string, 0, len(report.Rejected))
		for _, r := range report.Rejected {
			rows = append(rows, []string{filepath.Base(r.Path), r.Reason})
		}
		fmt.Fprintln(out, renderTable(out, []string{"Skipped edit index", "Reason"}, rows, nil))
	}
}

type runSummary struct {
	RunID          string            `json:"run_id"`
	Error          string            `json:"error,omitempty"`
	ErrorKind      string            `json:"error_kind,omitempty"`
	BatchFiles     int               `json:"batch_files"`
	BatchesGrouped int               `json:"batches_after_grouping"`
	Records        int               `json:"records"`
	Eligible       int               `json:"eligible_records"`
	MediaFiles     int               `json:"media_files"`
	CacheHits      int               `json:"probe_cache_hits"`
	Matched        int               `json:"matched"`
	Unmatched      []string          `json:"unmatched"`
	ProbeFailures  []string          `json:"probe_failures"`
	Skipped        map[string]string `json:"skipped_batches"`
	Documents      []documentSummary `json:"documents"`
	Warnings       int               `json:"warnings"`
	Errors         int               `json:"errors"`
	DurationMS     int64             `json:"duration_ms"`
}

type documentSummary struct {
	Path   string `json:"path"`
	Batch  string `json:"batch"`
	Events int    `json:"events"`
	Error  string `json:"error,omitempty"`
}

func newRunSummary(report *pipeline.Report, runErr error) runSummary {
	summary := runSummary{
		RunID:          report.RunID,
		BatchFiles:     report.BatchFiles,
		BatchesGrouped: report.BatchesGrouped,
		Records:        report.Records,
		Eligible:       report.Eligible,
		MediaFiles:     report.MediaFiles,
		CacheHits:      report.CacheHits,
		Matched:        report.Matched,
		Unmatched:      []string{},
		ProbeFailures:  []string{},
		Skipped:        map[string]string{},
		Documents:      []documentSummary{},
		DurationMS:     report.Duration.Milliseconds(),
	}
	if runErr != nil {
		summary.Error = runErr.Error()
		summary.ErrorKind = failure.Classify(runErr)
	}
	for _, item := range report.Unmatched {
		summary.Unmatched = append(summary.Unmatched, item.Path)
	}
	for _, p := range report.ProbeFailures {
		summary.ProbeFailures = append(summary.ProbeFailures, p.Path)
	}
	for _, r := range report.Rejected {
		summary.Skipped[r.Path] = r.Reason
	}
	failed := make(map[string]string, len(report.WriteFailures))
	for _, f := range report.WriteFailures {
		failed[f.Document.Path] = f.Err.Error()
	}
	for _, doc := range report.Documents {
		summary.Documents = append(summary.Documents, documentSummary{
			Path:   doc.Path,
			Batch:  doc.BatchPath,
			Events: doc.Events,
			Error:  failed[doc.Path],
		})
	}
	return summary
}
