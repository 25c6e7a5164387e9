// Package editindex models edit-index batches (one CSV export per batch) and
// normalizes their rows into Records ready for matching.
//
// Load reads a CSV file into a Batch, preserving header order and row order.
// A Normalizer then renames columns, converts the four designated timecode
// columns to frame counts and evaluates the configured skip filters. Batches
// are passed around as ordered slices; slice order is the order matching
// scans them in.
package editindex
