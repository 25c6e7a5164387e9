// Package main hosts the edlmatch CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration (TOML or YAML, with .env
// files and EDLMATCH_* environment fallbacks), runs preflight checks, and
// drives internal/pipeline for "edlmatch run". Supporting commands inspect a
// single media file ("probe"), report readiness ("check"), scaffold and print
// configuration ("config"), and manage the probe result cache ("cache").
//
// Keep this package lean: behaviour belongs in the internal packages; this
// package only wires configuration, logging, locking and output formatting.
package main
