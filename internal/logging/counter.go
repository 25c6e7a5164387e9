package logging

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// WarningCounter tallies warning and error records per phase so a run report
// can show how many fail-soft paths fired without re-reading the log.
type WarningCounter struct {
	mu       sync.Mutex
	warnings map[string]int
	errors   map[string]int
}

// PhaseCount is one row of a WarningCounter snapshot.
type PhaseCount struct {
	Phase    string
	Warnings int
	Errors   int
}

// WithWarningCounter tees logger into a fresh counter and returns both.
func WithWarningCounter(logger *slog.Logger) (*slog.Logger, *WarningCounter) {
	counter := &WarningCounter{warnings: map[string]int{}, errors: map[string]int{}}
	return TeeLogger(logger, &counterHandler{counter: counter}), counter
}

// Snapshot returns counts ordered by phase name.
func (c *WarningCounter) Snapshot() []PhaseCount {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	phases := make(map[string]struct{}, len(c.warnings)+len(c.errors))
	for phase := range c.warnings {
		phases[phase] = struct{}{}
	}
	for phase := range c.errors {
		phases[phase] = struct{}{}
	}
	out := make([]PhaseCount, 0, len(phases))
	for phase := range phases {
		out = append(out, PhaseCount{Phase: phase, Warnings: c.warnings[phase], Errors: c.errors[phase]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
	return out
}

// Total returns the number of warning and error records seen.
func (c *WarningCounter) Total() (warnings, errors int) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.warnings {
		warnings += n
	}
	for _, n := range c.errors {
		errors += n
	}
	return warnings, errors
}

func (c *WarningCounter) add(phase string, level slog.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level >= slog.LevelError {
		c.errors[phase]++
		return
	}
	c.warnings[phase]++
}

type counterHandler struct {
	counter *WarningCounter
	phase   string
}

func (h *counterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *counterHandler) Handle(ctx context.Context, record slog.Record) error {
	phase := h.phase
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == FieldPhase {
			phase = attr.Value.String()
			return false
		}
		return true
	})
	if phase == "" {
		phase, _ = PhaseFromContext(ctx)
	}
	h.counter.add(phase, record.Level)
	return nil
}

func (h *counterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	phase := h.phase
	for _, attr := range attrs {
		if attr.Key == FieldPhase {
			phase = attr.Value.String()
		}
	}
	return &counterHandler{counter: h.counter, phase: phase}
}

func (h *counterHandler) WithGroup(string) slog.Handler {
	return h
}
