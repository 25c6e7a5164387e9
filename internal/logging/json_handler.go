package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// newJSONHandler writes one object per record with "ts", "level" and "msg"
// keys. Durations are rendered in milliseconds so log processors can sum them.
func newJSONHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(_ []string, attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()
	switch {
	case attr.Key == slog.TimeKey && value.Kind() == slog.KindTime:
		return slog.String("ts", value.Time().UTC().Format(time.RFC3339Nano))
	case attr.Key == slog.LevelKey:
		return slog.String(slog.LevelKey, strings.ToLower(levelLabel(levelOf(value))))
	case attr.Key == slog.SourceKey:
		if src, ok := value.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	case value.Kind() == slog.KindDuration:
		return slog.Int64(attr.Key+"_ms", value.Duration().Milliseconds())
	case value.Kind() == slog.KindAny:
		if err, ok := value.Any().(error); ok && err != nil {
			return slog.String(attr.Key, err.Error())
		}
	}
	return attr
}

func levelOf(v slog.Value) slog.Level {
	if level, ok := v.Any().(slog.Level); ok {
		return level
	}
	return slog.LevelInfo
}
