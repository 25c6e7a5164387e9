// Package media models discovered media files.
//
// ParseName splits a file path into the name tokens the media key rule is
// evaluated against (directory, base name, extension, frame counter for
// numbered image sequences). FromProbe turns an ffprobe result into
// Metadata: picture size, frame rate, duration in frames and the source
// timecode range used for temporal validation.
package media
