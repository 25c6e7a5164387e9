package testsupport

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"edlmatch/internal/config"
	"edlmatch/internal/media/ffprobe"
	"edlmatch/internal/probecache"
)

// FakeProber returns canned results keyed by media path. Paths without an
// entry fail like a missing ffprobe output would.
type FakeProber struct {
	mu      sync.Mutex
	Results map[string]ffprobe.Result
	Errors  map[string]error
	Calls   []string
}

// NewFakeProber returns an empty FakeProber.
func NewFakeProber() *FakeProber {
	return &FakeProber{Results: map[string]ffprobe.Result{}, Errors: map[string]error{}}
}

// Set registers the result for path.
func (f *FakeProber) Set(path string, result ffprobe.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[path] = result
}

// Probe implements ffprobe.Prober.
func (f *FakeProber) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, path)
	if err, ok := f.Errors[path]; ok {
		return ffprobe.Result{}, err
	}
	result, ok := f.Results[path]
	if !ok {
		return ffprobe.Result{}, fmt.Errorf("no probe result for %s", path)
	}
	return result, nil
}

// VideoResult builds a probe result with one video stream of the given rate
// and frame count. A non-empty tc adds a tmcd stream carrying it.
func VideoResult(rate string, frames int, tc string) ffprobe.Result {
	streams := []ffprobe.Stream{{
		CodecName:         "prores",
		CodecType:         "video",
		Width:             1920,
		Height:            1080,
		SampleAspectRatio: "1:1",
		RFrameRate:        rate,
		AvgFrameRate:      rate,
		NBFrames:          strconv.Itoa(frames),
	}}
	if tc != "" {
		streams = append(streams, ffprobe.Stream{
			Index:     1,
			CodecType: "data",
			CodecTag:  "tmcd",
			Tags:      map[string]string{"timecode": tc},
		})
	}
	return ffprobe.Result{Streams: streams}
}

// MustOpenCache opens the probe cache configured on cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *probecache.Store {
	t.Helper()

	store, err := probecache.Open(context.Background(), cfg.Probe.CachePath)
	if err != nil {
		t.Fatalf("probecache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
