// Package preflight provides readiness checks for the filesystem paths and
// binaries a run depends on.
//
// The "edlmatch check" command prints every result; "edlmatch run" executes
// the same checks first and stops before any phase runs when one fails, so a
// missing root or ffprobe binary is reported up front instead of mid-run.
package preflight
