// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: per-stream properties including frame rate, frame count and tags
//   - Prober: the interface the pipeline probes media through
//
// Inspect executes ffprobe once; Inspector binds a binary and a per-call
// timeout and satisfies Prober.
package ffprobe
