package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the checkspec configuration
type Config struct {
	Variables   map[string]string `json:"variables,omitempty"`   // Variables available to every suite
	EnvFile     string            `json:"envFile,omitempty"`     // .env file with extra variables
	Reporters   []string          `json:"reporters,omitempty"`   // Output reporters
	OutputFile  string            `json:"outputFile,omitempty"`  // Write reporter output to a file
	History     string            `json:"history,omitempty"`     // SQLite database recording runs
	LogLevel    string            `json:"logLevel,omitempty"`    // silent, error, info, debug
	Parallel    *bool             `json:"parallel,omitempty"`
	Concurrency int               `json:"concurrency,omitempty"` // Number of checks evaluated at once
	Bail        *bool             `json:"bail,omitempty"`
	Verbose     *bool             `json:"verbose,omitempty"`
	NoColor     *bool             `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b, for tri-state config fields.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParallel returns the parallel setting, defaulting to false
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".checkspec.config.json",
	"checkspec.config.json",
	".checkspecrc",
	".checkspecrc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Relative paths in a config file are relative to the file itself.
	dir := filepath.Dir(path)
	if config.EnvFile != "" && !filepath.IsAbs(config.EnvFile) {
		config.EnvFile = filepath.Join(dir, config.EnvFile)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.History != "" {
		result.History = other.History
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Variables) > 0 {
		merged := make(map[string]string, len(c.Variables)+len(other.Variables))
		for k, v := range c.Variables {
			merged[k] = v
		}
		for k, v := range other.Variables {
			merged[k] = v
		}
		result.Variables = merged
	}

	if len(other.Reporters) > 0 {
		result.Reporters = other.Reporters
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
