package config

const (
	DefaultConcurrency = 5
	DefaultLogLevel    = "error"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Reporters:   []string{"console"},
		LogLevel:    DefaultLogLevel,
		Concurrency: DefaultConcurrency,
	}
}

