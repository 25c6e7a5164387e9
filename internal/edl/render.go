package edl

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"edlmatch/internal/editindex"
	"edlmatch/internal/logging"
	"edlmatch/internal/matching"
	"edlmatch/internal/tokens"
)

// DefaultReel is used when the reel rule produces nothing.
const DefaultReel = "AX"

const trackMarker = "V     C        "

const untitled = "untitled"

// LineRule derives one field of an event from the match tokens.
type LineRule struct {
	tokens.Rule
	Export bool
}

// Options configures rendering and document paths.
type Options struct {
	DropFrame    bool
	MaxReelWidth int

	Reel     LineRule
	Clip     LineRule
	ClipPath LineRule

	CustomRoot     string
	UseMediaRoot   bool
	UseMediaRootUp bool

	NameCustom          string
	NameFromBatch       bool
	NameFromMediaFolder bool
	NamePrefix          string
	NameSuffix          string
}

// Document is one rendered EDL.
type Document struct {
	Path      string
	Title     string
	BatchPath string
	Events    int
	Content   string
}

// Renderer holds compiled line rules.
type Renderer struct {
	opts     Options
	reel     *tokens.Compiled
	clip     *tokens.Compiled
	clipPath *tokens.Compiled
	logger   *slog.Logger
}

// NewRenderer compiles the reel, clip and clip path rules once.
func NewRenderer(opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MaxReelWidth <= 0 {
		opts.MaxReelWidth = 8
	}
	return &Renderer{
		opts:     opts,
		logger:   logger,
		reel:     tokens.CompileLogged(opts.Reel.Rule, "reel", logger),
		clip:     tokens.CompileLogged(opts.Clip.Rule, "clip", logger),
		clipPath: tokens.CompileLogged(opts.ClipPath.Rule, "clip_path", logger),
	}
}

// Render is shorthand for NewRenderer(opts, logger).Render(matches).
func Render(matches []matching.Match, opts Options, logger *slog.Logger) []Document {
	return NewRenderer(opts, logger).Render(matches)
}

// Render builds one document per batch, in order of first appearance.
// Matches without a batch are dropped.
func (r *Renderer) Render(matches []matching.Match) []Document {
	var order []*editindex.Batch
	partitions := map[*editindex.Batch][]matching.Match{}
	for _, m := range matches {
		if m.Batch == nil || m.Record == nil {
			continue
		}
		if _, seen := partitions[m.Batch]; !seen {
			order = append(order, m.Batch)
		}
		partitions[m.Batch] = append(partitions[m.Batch], m)
	}

	docs := make([]Document, 0, len(order))
	used := map[string]int{}
	for _, b := range order {
		events := partitions[b]
		sortByRecordIn(events)

		root, name := r.resolve(b, events[0])
		path := uniquePath(used, filepath.Join(root, name+".edl"))

		var sb strings.Builder
		sb.WriteString(Header(name, r.opts.DropFrame))
		for i, m := range events {
			sb.WriteString(r.event(i+1, m))
		}
		docs = append(docs, Document{
			Path:      path,
			Title:     name,
			BatchPath: b.Path,
			Events:    len(events),
			Content:   sb.String(),
		})
		r.logger.Debug("edl rendered",
			logging.String(logging.FieldDocument, path),
			logging.String(logging.FieldBatch, b.Name()),
			logging.Int("events", len(events)),
		)
	}
	return docs
}

// Header returns the title and frame code mode lines followed by a blank line.
func Header(title string, dropFrame bool) string {
	fcm := "NON-DROP FRAME"
	if dropFrame {
		fcm = "DROP FRAME"
	}
	return fmt.Sprintf("TITLE: %s\nFCM: %s\n\n", title, fcm)
}

// sortByRecordIn orders events by record-in frame; absent values sort last.
func sortByRecordIn(events []matching.Match) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Record.RecordIn, events[j].Record.RecordIn
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Value < b.Value
	})
}

// Tokens builds the token map line rules are evaluated against.
func Tokens(m matching.Match) tokens.Map {
	out := m.Record.Tokens()
	if m.Item == nil {
		return out
	}
	out = out.Merge(m.Item.Meta.Tokens())
	out["media_path"] = m.Item.Path
	out["media_file"] = m.Item.Base()
	out["media_key"] = m.Item.MatchKey
	return out
}

func (r *Renderer) event(seq int, m matching.Match) string {
	values := Tokens(m)

	reel := r.reel.Apply(values).Value
	if reel == "" {
		reel = DefaultReel
	}
	reel = fitReel(reel, r.opts.MaxReelWidth)

	timecodes := make([]string, 0, len(editindex.TimecodeColumns))
	for _, col := range editindex.TimecodeColumns {
		timecodes = append(timecodes, m.Record.Value(col))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%03d  %s %s%s\n", seq, reel, trackMarker, strings.Join(timecodes, " "))
	if r.opts.Clip.Export {
		sb.WriteString(r.clip.Apply(values).Value)
		sb.WriteString("\n")
	}
	if r.opts.ClipPath.Export {
		sb.WriteString(r.clipPath.Apply(values).Value)
		sb.WriteString("\n")
	}
	return sb.String()
}

// fitReel truncates or space-pads reel to exactly width runes.
func fitReel(reel string, width int) string {
	runes := []rune(reel)
	if len(runes) > width {
		return string(runes[:width])
	}
	return reel + strings.Repeat(" ", width-len(runes))
}

func (r *Renderer) resolve(b *editindex.Batch, first matching.Match) (string, string) {
	mediaDir := ""
	if first.Item != nil {
		mediaDir = filepath.ToSlash(first.Item.Dir())
	}

	root := filepath.ToSlash(strings.ReplaceAll(r.opts.CustomRoot, `\`, "/"))
	switch {
	case r.opts.UseMediaRoot:
		root = mediaDir
	case r.opts.UseMediaRootUp:
		root = filepath.ToSlash(filepath.Dir(mediaDir))
	}

	name := r.opts.NameCustom
	switch {
	case r.opts.NameFromBatch:
		name = b.Stem()
	case r.opts.NameFromMediaFolder:
		name = filepath.Base(mediaDir)
	}
	name = sanitizeFileName(r.opts.NamePrefix + name + r.opts.NameSuffix)
	if name == "" {
		name = untitled
	}
	return root, name
}

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// sanitizeFileName keeps a document name to a single path segment.
func sanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(name)))
}

// uniquePath appends _2, _3... before the extension when path was already
// handed out.
func uniquePath(used map[string]int, path string) string {
	used[path]++
	n := used[path]
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	candidate := fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), n, ext)
	if _, taken := used[candidate]; taken {
		return uniquePath(used, candidate)
	}
	used[candidate] = 1
	return candidate
}
