package pipeline

import (
	"context"
	"log/slog"
	"time"

	"edlmatch/internal/config"
	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
	"edlmatch/internal/media/ffprobe"
)

// Runner executes stages against one configuration.
type Runner struct {
	Config *config.Config
	Prober ffprobe.Prober
	Logger *slog.Logger
	RunID  string
	// Stages defaults to Stages().
	Stages []Stage
}

// Execute runs every stage in order and stops at the first error. The
// report is returned even when a stage fails.
func (r *Runner) Execute(ctx context.Context) (*Report, error) {
	report := &Report{RunID: r.RunID, Started: time.Now()}
	if r.Config == nil {
		return report, failure.Wrap(failure.ErrConfiguration, "run", "start", "configuration is required", nil)
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	stages := r.Stages
	if len(stages) == 0 {
		stages = Stages()
	}

	state := &State{Config: r.Config, Prober: r.Prober, Report: report}
	defer func() {
		report.Duration = time.Since(report.Started)
	}()

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		stageCtx := logging.WithPhase(ctx, stage.Name)
		state.Logger = logging.PhaseLogger(logger, stage.Name, r.Config.Logging.StageOverrides)

		started := time.Now()
		state.Logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
		if err := stage.Run(stageCtx, state); err != nil {
			state.Logger.Error("stage failed",
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.String("error_kind", failure.Classify(err)),
				logging.Error(err),
			)
			return report, err
		}
		state.Logger.Debug("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", time.Since(started)),
		)
	}

	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("batches", report.BatchesGrouped),
		logging.Int("media_files", report.MediaFiles),
		logging.Int("matched", report.Matched),
		logging.Int("unmatched", len(report.Unmatched)),
		logging.Int("documents", report.DocumentsWritten()),
		logging.Int("write_failures", len(report.WriteFailures)),
	)
	return report, nil
}
