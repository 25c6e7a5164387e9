// Package config loads, normalizes, and validates edlmatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files (or YAML when the file ends in .yaml/.yml), and
// honours environment fallbacks such as EDLMATCH_BATCH_ROOT. The Config type
// centralizes every rule the pipeline evaluates, so CSV discovery, matching
// and EDL layout are configured in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
