// Package config handles configuration loading and management for checkspec.
//
// It provides functionality for:
//   - Loading configuration from .checkspec.config.json (and friends)
//   - Default configuration values
//   - Merging file configuration with explicit overrides
package config
