package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"edlmatch/internal/failure"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "prores", "width": 1920, "height": 1080,
     "sample_aspect_ratio": "1:1", "r_frame_rate": "24000/1001", "nb_frames": "240", "duration": "10.010000"},
    {"index": 1, "codec_type": "audio", "codec_name": "pcm_s24le"},
    {"index": 2, "codec_type": "data", "codec_tag_string": "tmcd", "tags": {"timecode": "01:00:00:00"}}
  ],
  "format": {"filename": "A001.mov", "nb_streams": 3, "duration": "10.010000", "size": "1000"}
}`

func TestParseAndStreamHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 1920 || video.RFrameRate != "24000/1001" {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	if n, ok := video.FrameCount(); !ok || n != 240 {
		t.Fatalf("unexpected frame count: %d %v", n, ok)
	}
	if video.DurationSeconds() != 10.01 {
		t.Fatalf("unexpected duration: %v", video.DurationSeconds())
	}
	tc, ok := result.TimecodeStream()
	if !ok || tc.Tag("TIMECODE") != "01:00:00:00" {
		t.Fatalf("unexpected timecode stream: %+v", tc)
	}
	if result.VideoStreamCount() != 1 || result.SizeBytes() != 1000 {
		t.Fatalf("unexpected result helpers: %d %d", result.VideoStreamCount(), result.SizeBytes())
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{")); !errors.Is(err, failure.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestStreamHelpersHandleMissingValues(t *testing.T) {
	var s Stream
	if !math.IsNaN(s.DurationSeconds()) {
		t.Fatalf("expected NaN duration, got %v", s.DurationSeconds())
	}
	if _, ok := s.FrameCount(); ok {
		t.Fatal("expected missing frame count")
	}
	if s.Tag("timecode") != "" {
		t.Fatal("expected empty tag")
	}
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"25/1", 25, true},
		{"24000/1001", 24000.0 / 1001.0, true},
		{"29.97", 29.97, true},
		{"0/0", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseRate(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseRate(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseRate(%q) expected error, got %v", tc.in, got)
		}
	}
}

func TestInspectorRunsBinary(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ffprobe")
	body := "#!/bin/sh\ncat <<'JSON'\n" + sampleJSON + "\nJSON\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	result, err := Inspector{Binary: script}.Probe(context.Background(), "/media/A001.mov")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if result.Format.Filename != "A001.mov" {
		t.Fatalf("unexpected filename: %q", result.Format.Filename)
	}
}

func TestInspectorReportsFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	_, err := Inspector{Binary: script}.Probe(context.Background(), "/media/A001.mov")
	if !errors.Is(err, failure.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
