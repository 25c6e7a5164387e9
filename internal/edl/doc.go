// Package edl renders matches into CMX3600-style edit decision lists and
// writes them to disk.
//
// Render partitions matches by batch, orders each partition by record-in
// frame and formats one event row per match, optionally followed by clip
// name and clip path annotation lines. Document paths come from a root
// policy and a name policy. Write persists documents independently so one
// failure does not stop the rest.
package edl
