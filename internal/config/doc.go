// Package config loads, normalizes, and validates the TOML configuration for
// the content pipeline. Defaults live in defaults.go so a missing config file
// still yields a runnable setup; normalization expands paths and resolves API
// keys from the environment before validation runs.
package config
