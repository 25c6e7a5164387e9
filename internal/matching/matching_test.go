package matching

import (
	"errors"
	"testing"

	"edlmatch/internal/editindex"
	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
	"edlmatch/internal/media"
	"edlmatch/internal/timecode"
)

func record(line int, clip string) *editindex.Record {
	return editindex.NewRecord(line, []string{"clip"}, []string{clip})
}

func batch(path string, recs ...*editindex.Record) *editindex.Batch {
	return &editindex.Batch{Path: path, Records: recs}
}

func item(path string) *media.Item {
	return media.NewItem(path)
}

func newEngine(timecode bool) *Engine {
	return New(Options{
		SourceColumn:     "clip",
		KeyPattern:       `^(\w+)`,
		MediaKeyPattern:  `^(\w+)`,
		MatchTimecode:    timecode,
		UnicodeNormalize: true,
	}, logging.NewNop())
}

func TestFirstFitPrecedence(t *testing.T) {
	r1 := record(1, "A001")
	r2 := record(2, "A001")
	r3 := record(1, "A001")
	batches := []*editindex.Batch{batch("/csv/one.csv", r1, r2), batch("/csv/two.csv", r3)}

	outcome, err := newEngine(false).Run(batches, []*media.Item{item("/media/A001.mov")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 1 {
		t.Fatalf("expected one match, got %d", len(outcome.Matches))
	}
	if outcome.Matches[0].Record != r1 || outcome.Matches[0].Batch != batches[0] {
		t.Fatalf("expected first record of first batch to win")
	}
}

func TestRecordMaySatisfySeveralItems(t *testing.T) {
	rec := record(1, "A001")
	items := []*media.Item{item("/media/A001.mov"), item("/proxy/A001.mp4")}
	outcome, err := newEngine(false).Run([]*editindex.Batch{batch("/csv/one.csv", rec)}, items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 2 || outcome.Matches[0].Record != rec || outcome.Matches[1].Record != rec {
		t.Fatalf("expected both items to match the same record: %+v", outcome.Matches)
	}
}

func withRange(rec *editindex.Record, in, out int) *editindex.Record {
	rec.SourceIn = timecode.FramesOf(in)
	rec.SourceOut = timecode.FramesOf(out)
	return rec
}

func itemRange(path string, in, out int) *media.Item {
	it := item(path)
	it.Meta.In = timecode.FramesOf(in)
	it.Meta.Out = timecode.FramesOf(out)
	return it
}

func TestTemporalContainment(t *testing.T) {
	rec := withRange(record(1, "A001"), 10, 20)
	batches := []*editindex.Batch{batch("/csv/one.csv", rec)}

	outcome, err := newEngine(true).Run(batches, []*media.Item{itemRange("/media/A001.mov", 5, 25)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 1 {
		t.Fatalf("[10,20] within [5,25] should match")
	}

	outcome, err = newEngine(true).Run(batches, []*media.Item{itemRange("/media/A001.mov", 12, 18)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 0 || len(outcome.Unmatched) != 1 {
		t.Fatalf("[10,20] within [12,18] should not match")
	}
}

func TestTemporalCheckFallsThroughToLaterRecord(t *testing.T) {
	outside := withRange(record(1, "A001"), 0, 100)
	inside := withRange(record(2, "A001"), 10, 20)
	batches := []*editindex.Batch{batch("/csv/one.csv", outside, inside)}

	outcome, err := newEngine(true).Run(batches, []*media.Item{itemRange("/media/A001.mov", 5, 25)})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 1 || outcome.Matches[0].Record != inside {
		t.Fatalf("expected the contained record to match")
	}
}

func TestTemporalCheckRequiresAllBounds(t *testing.T) {
	rec := record(1, "A001")
	rec.SourceIn = timecode.FramesOf(10)
	if Contains(rec, itemRange("/media/A001.mov", 0, 100)) {
		t.Fatal("missing source_out must fail containment")
	}
}

func TestSkippedRecordsNeverMatch(t *testing.T) {
	rec := record(1, "A001")
	rec.Skip = true
	batches := []*editindex.Batch{batch("/csv/one.csv", rec)}
	outcome, err := newEngine(false).Run(batches, []*media.Item{item("/media/A001.mov")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 0 {
		t.Fatal("skipped record must not match")
	}
	if rec.MatchKey != "" {
		t.Fatalf("skipped record should have no key, got %q", rec.MatchKey)
	}
}

func TestUnmatchedReportedInOrder(t *testing.T) {
	batches := []*editindex.Batch{batch("/csv/one.csv", record(1, "A001"))}
	items := []*media.Item{item("/media/B002.mov"), item("/media/A001.mov"), item("/media/C003.mov")}
	outcome, err := newEngine(false).Run(batches, items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Unmatched) != 2 || outcome.Unmatched[0] != items[0] || outcome.Unmatched[1] != items[2] {
		t.Fatalf("unexpected unmatched list: %+v", outcome.Unmatched)
	}
}

func TestEmptyKeysNeverMatch(t *testing.T) {
	batches := []*editindex.Batch{batch("/csv/one.csv", record(1, "---"))}
	outcome, err := newEngine(false).Run(batches, []*media.Item{item("/media/---.mov")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 0 || len(outcome.Unmatched) != 1 {
		t.Fatal("empty keys must not match each other")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	batches := []*editindex.Batch{batch("/csv/one.csv", record(1, "A001"), record(2, "B002"))}
	items := []*media.Item{item("/media/B002.mov"), item("/media/A001.mov")}
	engine := newEngine(false)

	first, err := engine.Run(batches, items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	second, err := engine.Run(batches, items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(first.Matches) != len(second.Matches) {
		t.Fatalf("match count changed between runs")
	}
	for i := range first.Matches {
		if first.Matches[i] != second.Matches[i] {
			t.Fatalf("match %d changed between runs", i)
		}
	}
}

func TestEmptyCollections(t *testing.T) {
	engine := newEngine(false)
	if _, err := engine.Run(nil, []*media.Item{item("/media/A001.mov")}); !errors.Is(err, failure.ErrEmptyCollection) {
		t.Fatalf("expected ErrEmptyCollection for no batches, got %v", err)
	}
	if _, err := engine.Run([]*editindex.Batch{batch("/csv/one.csv", record(1, "A001"))}, nil); !errors.Is(err, failure.ErrEmptyCollection) {
		t.Fatalf("expected ErrEmptyCollection for no items, got %v", err)
	}
}

func TestUnicodeNormalizedKeys(t *testing.T) {
	engine := New(Options{SourceColumn: "clip", KeyPattern: `^(.+)$`, MediaKeyPattern: `^(.+)$`, UnicodeNormalize: true}, logging.NewNop())
	batches := []*editindex.Batch{batch("/csv/one.csv", record(1, "Caf\u00e9"))}
	outcome, err := engine.Run(batches, []*media.Item{item("/media/Cafe\u0301.mov")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 1 {
		t.Fatal("NFD file name should match NFC record text")
	}
}

func TestMalformedRuleMatchesNothing(t *testing.T) {
	engine := New(Options{SourceColumn: "clip", KeyPattern: `(`, MediaKeyPattern: `^(\w+)`}, logging.NewNop())
	batches := []*editindex.Batch{batch("/csv/one.csv", record(1, "A001"))}
	outcome, err := engine.Run(batches, []*media.Item{item("/media/A001.mov")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(outcome.Matches) != 0 {
		t.Fatal("malformed record rule must not match")
	}
}
