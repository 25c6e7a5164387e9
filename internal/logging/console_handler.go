package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders a one-line header per record followed by one
// indented "- Label: value" line per attribute.
//
//	2026-03-01 10:00:00 WARN [probecache] Probe – media not probed
//	    - Event: probe_failed
//	    - Media: /media/A001.mov
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	addSource bool
	prefix    string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{mu: new(sync.Mutex), out: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.fields)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var component, phase string
	fields = slices.DeleteFunc(fields, func(f field) bool {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
		case FieldPhase:
			phase = attrString(f.value)
		default:
			return false
		}
		return true
	})
	sortFields(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(formatTimestamp(ts))
	b.WriteString(" " + levelLabel(record.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if phase = strings.TrimSpace(phase); phase != "" {
		b.WriteString(" " + capitalizeASCII(phase))
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" – " + msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')

	verbose := record.Level < slog.LevelInfo
	for _, f := range fields {
		if !verbose && debugOnly(f.key) {
			continue
		}
		fmt.Fprintf(&b, "    - %s: %s\n", label(f.key), formatValue(f.value))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slices.Clone(h.fields)
	for _, attr := range attrs {
		next.fields = appendField(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range value.Group() {
			dst = appendField(dst, prefix, member)
		}
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: value})
}

// lastWins drops earlier fields that a later field with the same key
// overrides, keeping the position of the first occurrence.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if pos, ok := index[f.key]; ok {
			out[pos].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

// fieldRank orders the fields an operator reads first.
var fieldRank = map[string]int{
	FieldAlert:     1,
	FieldEventType: 2,
	FieldBatch:     3,
	FieldLine:      4,
	FieldMediaPath: 5,
	FieldDocument:  6,
	FieldRule:      7,
	"error":        8,
	FieldErrorHint: 9,
	FieldImpact:    10,
}

func sortFields(fields []field) {
	rank := func(key string) int {
		if r, ok := fieldRank[key]; ok {
			return r
		}
		return len(fieldRank) + 1
	}
	slices.SortStableFunc(fields, func(a, b field) int { return rank(a.key) - rank(b.key) })
}

func debugOnly(key string) bool {
	switch key {
	case FieldRunID, "pattern", "template", "tokens":
		return true
	}
	return strings.HasPrefix(key, "ffprobe.")
}

var labels = map[string]string{
	FieldEventType: "Event",
	FieldErrorHint: "Hint",
	FieldMediaPath: "Media",
	FieldRunID:     "Run",
}

func label(key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	if len(words) == 0 {
		return capitalizeASCII(key)
	}
	for i, w := range words {
		words[i] = capitalizeASCII(w)
	}
	return strings.Join(words, " ")
}

func capitalizeASCII(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
