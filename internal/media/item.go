package media

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"edlmatch/internal/failure"
	"edlmatch/internal/media/ffprobe"
	"edlmatch/internal/timecode"
	"edlmatch/internal/tokens"
)

// Category classifies a media file by extension.
type Category string

const (
	CategoryVideo   Category = "video"
	CategoryStill   Category = "still"
	CategoryUnknown Category = "unknown"
)

var (
	videoExtensions = map[string]struct{}{
		"mov": {}, "avi": {}, "mpg": {}, "mpeg": {}, "mp2": {}, "mpv": {},
		"mp4": {}, "m4v": {}, "gov": {}, "qt": {}, "r3d": {}, "mxf": {},
	}
	stillExtensions = map[string]struct{}{
		"dpx": {}, "cin": {}, "jpg": {}, "jpeg": {}, "tif": {}, "tiff": {},
		"rgb": {}, "sgi": {}, "tga": {}, "png": {}, "exr": {}, "dng": {},
	}
)

// CategoryOf classifies path by its extension.
func CategoryOf(path string) Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, ok := stillExtensions[ext]; ok {
		return CategoryStill
	}
	if _, ok := videoExtensions[ext]; ok {
		return CategoryVideo
	}
	return CategoryUnknown
}

// ErrNoVideoStream is returned by FromProbe when the file has no video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Metadata is the probe-derived description of a media file. In and Out are
// the inclusive source timecode range in frames.
type Metadata struct {
	Width           int
	Height          int
	PixelAspect     string
	FrameRateRaw    string
	FrameRate       float64
	DurationFrames  int
	DurationSeconds float64
	Category        Category
	Timecode        string
	In              timecode.Frames
	Out             timecode.Frames
	OutTimecode     string
}

// FromProbe derives Metadata from the first video stream and the tmcd
// stream of result. Duration in frames comes from stream seconds times the
// frame rate when both are known and from nb_frames otherwise. The source
// range is only set when a start timecode and a positive duration exist.
func FromProbe(path string, result ffprobe.Result) (Metadata, error) {
	meta := Metadata{Category: CategoryOf(path)}
	video, ok := result.VideoStream()
	if !ok {
		return meta, failure.Wrap(failure.ErrValidation, "probe", "read metadata", path, ErrNoVideoStream)
	}
	meta.Width = video.Width
	meta.Height = video.Height
	meta.PixelAspect = video.SampleAspectRatio
	meta.FrameRateRaw = video.RFrameRate

	var rateErr error
	meta.FrameRate, rateErr = ffprobe.ParseRate(video.RFrameRate)
	if rateErr != nil {
		meta.FrameRate = 0
	}
	if n, ok := video.FrameCount(); ok {
		meta.DurationFrames = n
	}
	if secs := video.DurationSeconds(); !math.IsNaN(secs) {
		meta.DurationSeconds = secs
		if meta.FrameRate > 0 {
			meta.DurationFrames = int(math.RoundToEven(meta.FrameRate * secs))
		}
	}
	if tc, ok := result.TimecodeStream(); ok {
		meta.Timecode = strings.TrimSpace(tc.Tag("timecode"))
	}

	if meta.Timecode == "" || meta.DurationFrames <= 0 || meta.FrameRate <= 0 {
		return meta, nil
	}
	in, err := timecode.ToFrames(meta.Timecode, meta.FrameRate)
	if err != nil {
		return meta, failure.Wrap(failure.ErrValidation, "probe", "source timecode", path, err)
	}
	out := in + meta.DurationFrames - 1
	outTC, err := timecode.ToTimecode(out, meta.FrameRate)
	if err != nil {
		return meta, failure.Wrap(failure.ErrValidation, "probe", "source timecode", path, err)
	}
	meta.In = timecode.FramesOf(in)
	meta.Out = timecode.FramesOf(out)
	meta.OutTimecode = outTC
	return meta, nil
}

// Tokens exposes metadata fields for output rules. Absent values are left
// out so their placeholders stay literal.
func (m Metadata) Tokens() tokens.Map {
	out := tokens.Map{
		"width":           strconv.Itoa(m.Width),
		"height":          strconv.Itoa(m.Height),
		"pa":              m.PixelAspect,
		"fps_raw":         m.FrameRateRaw,
		"fps":             strconv.FormatFloat(m.FrameRate, 'f', -1, 64),
		"duration_frames": strconv.Itoa(m.DurationFrames),
		"duration_secs":   strconv.FormatFloat(m.DurationSeconds, 'f', -1, 64),
		"category":        string(m.Category),
	}
	if m.Timecode != "" {
		out["timecode"] = m.Timecode
	}
	if m.In.Valid {
		out["tc_in_frames"] = m.In.String()
	}
	if m.Out.Valid {
		out["tc_out_frames"] = m.Out.String()
		out["tc_out"] = m.OutTimecode
	}
	return out
}

// Item is one discovered media file.
type Item struct {
	Path     string
	Name     tokens.Map
	Meta     Metadata
	ProbeErr error
	MatchKey string
}

// NewItem parses the name tokens of path. Metadata is filled in by probing.
func NewItem(path string) *Item {
	return &Item{Path: path, Name: ParseName(path), Meta: Metadata{Category: CategoryOf(path)}}
}

// Base returns the file name of the item.
func (i *Item) Base() string {
	return filepath.Base(i.Path)
}

// Dir returns the directory holding the item.
func (i *Item) Dir() string {
	return filepath.Dir(i.Path)
}

// Describe is a short label for logs and tables.
func (i *Item) Describe() string {
	if i.MatchKey == "" {
		return i.Base()
	}
	return fmt.Sprintf("%s (%s)", i.Base(), i.MatchKey)
}
