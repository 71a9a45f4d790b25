// Package config loads and merges scorn configuration from defaults, the
// YAML config file, SCORN_* environment variables, and CLI flag overrides,
// in that order of increasing precedence.
package config
