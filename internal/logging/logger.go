package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	RunID       string
	Development bool
}

// Settings is the subset of configuration the logger needs. It mirrors the
// [logging] config section so this package does not import config.
type Settings struct {
	Level  string
	Format string
	Dir    string
	RunID  string
}

// LogFileName returns the per-day log file name used inside the log directory.
func LogFileName(now time.Time) string {
	return "edlmatch-" + now.Format("20060102") + ".log"
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	handler, err := newHandler(opts.Format, opts.OutputPaths, level, opts.Development)
	if err != nil {
		return nil, err
	}
	return slog.New(withRunID(handler, opts.RunID)), nil
}

// NewFromSettings creates a logger writing to stderr in the configured format
// and, when a log directory is configured, JSON lines to a dated file inside it.
func NewFromSettings(s Settings) (*slog.Logger, error) {
	level := parseLevel(s.Level)
	console, err := newHandler(s.Format, []string{"stderr"}, level, false)
	if err != nil {
		return nil, err
	}
	handler := console
	if dir := strings.TrimSpace(s.Dir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := newHandler("json", []string{filepath.Join(dir, LogFileName(time.Now()))}, level, false)
		if err != nil {
			return nil, err
		}
		handler = newFanoutHandler(console, file)
	}
	return slog.New(withRunID(handler, s.RunID)), nil
}

func newHandler(format string, outputs []string, level slog.Level, development bool) (slog.Handler, error) {
	writer, err := openWriters(defaultSlice(outputs, []string{"stderr"}))
	if err != nil {
		return nil, err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := development || level <= slog.LevelDebug

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newConsoleHandler(writer, levelVar, addSource), nil
	case "json":
		return newJSONHandler(writer, levelVar, addSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

func withRunID(handler slog.Handler, runID string) slog.Handler {
	if runID = strings.TrimSpace(runID); runID != "" {
		return newRunIDHandler(handler, runID)
	}
	return handler
}

// ParseLevel maps a configured level name onto a slog level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	return parseLevel(level)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		return append([]string(nil), fallback...)
	}
	return append([]string(nil), value...)
}

func openWriters(paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer

	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(trimmed); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
