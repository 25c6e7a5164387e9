package probecache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"edlmatch/internal/logging"
	"edlmatch/internal/media/ffprobe"
)

type countingProber struct {
	calls int
	err   error
}

func (c *countingProber) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	c.calls++
	if c.err != nil {
		return ffprobe.Result{}, c.err
	}
	return ffprobe.Parse([]byte(`{"streams":[{"codec_type":"video","r_frame_rate":"25/1"}],"format":{"filename":"` + filepath.Base(path) + `"}}`))
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "probe-cache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mediaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "A001.mov")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProberCachesResults(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	next := &countingProber{}
	prober := &Prober{Next: next, Store: store, Logger: logging.NewNop()}
	path := mediaFile(t, "frames")

	for i := 0; i < 2; i++ {
		result, err := prober.Probe(ctx, path)
		if err != nil {
			t.Fatalf("Probe failed: %v", err)
		}
		if result.Format.Filename != "A001.mov" {
			t.Fatalf("unexpected result: %+v", result.Format)
		}
	}
	if next.calls != 1 || prober.Hits != 1 || prober.Misses != 1 {
		t.Fatalf("expected one probe and one hit, got calls=%d hits=%d misses=%d", next.calls, prober.Hits, prober.Misses)
	}
}

func TestChangedFileIsProbedAgain(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	next := &countingProber{}
	prober := &Prober{Next: next, Store: store}
	path := mediaFile(t, "frames")

	if _, err := prober.Probe(ctx, path); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("more frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	if _, err := prober.Probe(ctx, path); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected a second probe after change, got %d", next.calls)
	}
}

func TestProbeErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	next := &countingProber{err: errors.New("boom")}
	prober := &Prober{Next: next, Store: store}
	if _, err := prober.Probe(ctx, mediaFile(t, "x")); err == nil {
		t.Fatal("expected probe error")
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 0 {
		t.Fatalf("expected empty cache, got %d entries", stats.Entries)
	}
}

func TestStatsAndClear(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	prober := &Prober{Next: &countingProber{}, Store: store}
	if _, err := prober.Probe(ctx, mediaFile(t, "x")); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 1 || stats.Oldest.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed entry, got %d", removed)
	}
}

func TestSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "probe-cache.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestPutEncodesResultsBuiltInProcess(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	path := mediaFile(t, "frames")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	built := ffprobe.Result{Streams: []ffprobe.Stream{{
		CodecType:  "video",
		RFrameRate: "24/1",
		Tags:       map[string]string{"timecode": "01:00:00:00"},
	}}}

	if err := store.Put(ctx, path, info, built); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok, err := store.Get(ctx, path, info)
	if err != nil || !ok {
		t.Fatalf("expected cached entry, got ok=%v err=%v", ok, err)
	}
	stream, found := got.VideoStream()
	if !found || stream.RFrameRate != "24/1" || stream.Tag("timecode") != "01:00:00:00" {
		t.Fatalf("unexpected cached result: %+v", got)
	}
}
