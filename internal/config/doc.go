// Package config loads, normalizes, and validates realigner configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the REALIGNER_CSV environment
// fallback. The Config type centralizes the realignment table location, the
// per-split original/realigned folders, the alternate frame rate dialogue
// lists, and the fixed ffmpeg encoding profile.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
