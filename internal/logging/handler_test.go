package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRunIDHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := newRunIDHandler(slog.NewJSONHandler(&buf, nil), "run-abc")

	slog.New(handler).With("extra", "value").Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"run-abc"`) {
		t.Errorf("expected run_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestRunIDHandlerNilBase(t *testing.T) {
	if _, ok := newRunIDHandler(nil, "run").(NoopHandler); !ok {
		t.Error("expected NoopHandler when base is nil")
	}
}

func TestFanoutHandlerCollapsesNil(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var infoBuf, warnBuf bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected info to be enabled by first handler")
	}
	slog.New(h).Info("only first")
	if infoBuf.Len() == 0 || warnBuf.Len() != 0 {
		t.Fatalf("unexpected routing: info=%q warn=%q", infoBuf.String(), warnBuf.String())
	}
}

func TestConsoleHandlerOrdersHighlightedFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false)).With(FieldComponent, "matching", FieldPhase, "match")

	logger.Warn("media not matched", "zeta", "z", FieldMediaPath, "/m/a.mov", FieldEventType, "media_unmatched")

	out := buf.String()
	if !strings.Contains(out, "WARN [matching] Match – media not matched") {
		t.Fatalf("unexpected header: %q", out)
	}
	eventIdx := strings.Index(out, "Event: media_unmatched")
	mediaIdx := strings.Index(out, "Media: /m/a.mov")
	zetaIdx := strings.Index(out, "Zeta: z")
	if eventIdx < 0 || mediaIdx < eventIdx || zetaIdx < mediaIdx {
		t.Fatalf("unexpected field order: %q", out)
	}
}
