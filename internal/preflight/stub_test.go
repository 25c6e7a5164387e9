package preflight_test

import (
	"context"
	"strings"
	"testing"

	"edlmatch/internal/preflight"
	"edlmatch/internal/testsupport"
)

func TestRunAllFindsFFprobeOnPath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := preflight.RunAll(context.Background(), cfg)
	if failed := preflight.Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	last := results[len(results)-1]
	if last.Name != "FFprobe" || !strings.Contains(last.Detail, testsupport.BaseDir(cfg)) {
		t.Fatalf("expected ffprobe resolved from stub dir, got %+v", last)
	}
}
