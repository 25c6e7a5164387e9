// Package probecache persists ffprobe results in SQLite so repeated runs over
// the same media folder skip re-probing unchanged files.
//
// Entries are keyed by absolute path and invalidated when the file's size or
// modification time changes. Prober wraps any ffprobe.Prober with the cache.
package probecache
