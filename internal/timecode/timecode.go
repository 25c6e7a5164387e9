// Package timecode converts between HH:MM:SS:FF timecode strings and absolute
// frame counts.
//
// Every conversion uses the integer-rounded frame rate as its base, so 23.976
// counts as 24 and 29.97 as 30. Drop-frame counting is never applied here; the
// drop-frame flag only changes the FCM line of rendered documents.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrFrameRate is returned when the frame rate rounds to less than one.
	ErrFrameRate = errors.New("timecode: frame rate must round to at least 1")
	// ErrFormat is returned for timecode strings that are not four numeric fields.
	ErrFormat = errors.New("timecode: expected HH:MM:SS:FF")
)

// Frames is an optional frame count. The zero value is absent.
type Frames struct {
	Value int
	Valid bool
}

// FramesOf returns a present frame count.
func FramesOf(n int) Frames { return Frames{Value: n, Valid: true} }

func (f Frames) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.Itoa(f.Value)
}

// Base returns the integer frame rate used for conversions.
func Base(fps float64) int {
	return int(math.RoundToEven(fps))
}

// ToFrames converts a colon separated timecode to an absolute frame count at
// fps. Fields may carry a fractional part; the result is rounded half to even.
func ToFrames(tc string, fps float64) (int, error) {
	base := Base(fps)
	if base < 1 {
		return 0, ErrFrameRate
	}
	fields := strings.Split(strings.TrimSpace(tc), ":")
	if len(fields) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrFormat, tc)
	}
	weights := [4]float64{3600, 60, 1, 1 / float64(base)}
	seconds := 0.0
	for i, field := range fields {
		value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrFormat, tc, err)
		}
		seconds += weights[i] * value
	}
	return int(math.RoundToEven(seconds * float64(base))), nil
}

// ToTimecode converts an absolute frame count at fps to HH:MM:SS:FF. Hours are
// not wrapped at 24.
func ToTimecode(frames int, fps float64) (string, error) {
	base := Base(fps)
	if base < 1 {
		return "", ErrFrameRate
	}
	if frames < 0 {
		return "", fmt.Errorf("timecode: negative frame count %d", frames)
	}
	h := frames / (3600 * base)
	m := frames / (60 * base) % 60
	s := frames % (60 * base) / base
	f := frames % base
	return fmt.Sprintf("%02d:%02d:%02d:%02d", h, m, s, f), nil
}
