// Package deps reports whether the external binaries edlmatch shells out to
// are installed.
package deps
