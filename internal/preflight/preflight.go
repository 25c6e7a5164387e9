package preflight

import (
	"context"
	"strings"

	"edlmatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Batch root", cfg.Batches.Root, ReadOnly),
		CheckDirectoryAccess("Media root", cfg.Media.Root, ReadOnly),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir, ReadWrite),
	}

	// A custom output root is created on demand, so only check it when it exists
	// and no media-relative policy overrides it.
	if root := strings.TrimSpace(cfg.Output.CustomRoot); root != "" && !cfg.Output.UseMediaRoot && !cfg.Output.UseMediaRootUp {
		if result := CheckDirectoryAccess("Output root", root, ReadWrite); result.Passed || !strings.Contains(result.Detail, "does not exist") {
			results = append(results, result)
		}
	}

	results = append(results, CheckFFprobe(cfg.FFprobeBinary()))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
