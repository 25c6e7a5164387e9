package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"edlmatch/internal/config"
	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// logger builds the run logger: stderr plus the dated file in the log
// directory, stamped with runID. Old log files are pruned on the way.
func (c *commandContext) logger(cfg *config.Config, runID string) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = strings.TrimSpace(*c.logLevelFlag)
	}
	logger, err := logging.NewFromSettings(logging.Settings{
		Level:  level,
		Format: cfg.Logging.Format,
		Dir:    cfg.Logging.Dir,
		RunID:  runID,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.Dir, cfg.Logging.RetentionDays, logging.LogFileName(time.Now()))
	return logger, nil
}

// withRunLock holds the state directory lock while fn runs.
func withRunLock(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another edlmatch run holds %s", cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError prefixes err with a hint for the failure class.
func describeError(err error) string {
	switch {
	case errors.Is(err, failure.ErrConfiguration):
		return fmt.Sprintf("%v\n(check the configuration file or run `edlmatch config validate`)", err)
	case errors.Is(err, failure.ErrNotFound):
		return fmt.Sprintf("%v\n(check that the batch and media roots exist)", err)
	case errors.Is(err, failure.ErrEmptyCollection):
		return fmt.Sprintf("%v\n(nothing to match; check the include, exclude and pattern filters)", err)
	case errors.Is(err, failure.ErrExternalTool):
		return fmt.Sprintf("%v\n(run `edlmatch check` to verify ffprobe)", err)
	default:
		return err.Error()
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
