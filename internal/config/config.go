package config

// Config represents the main Ovenline configuration
type Config struct {
	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Durable tier
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Cache tier
	Redis RedisConfig `json:"redis" mapstructure:"redis"`

	// Session lifecycle
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Durable-tier retry policy
	Retry RetryConfig `json:"retry" mapstructure:"retry"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// DatabaseConfig holds durable-tier configuration
type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// RedisConfig holds cache-tier configuration
type RedisConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
}

// SessionConfig holds session lifecycle configuration
type SessionConfig struct {
	TimeoutMinutes     int    `json:"timeout_minutes" mapstructure:"timeout_minutes"`
	MaxConcurrentCalls int    `json:"max_concurrent_calls" mapstructure:"max_concurrent_calls"`
	CleanupSchedule    string `json:"cleanup_schedule" mapstructure:"cleanup_schedule"`
}

// RetryConfig holds retry policy for durable-tier operations
type RetryConfig struct {
	MaxRetries        int `json:"max_retries" mapstructure:"max_retries"`
	InitialIntervalMS int `json:"initial_interval_ms" mapstructure:"initial_interval_ms"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Enabled: false,
			URL:     "redis://localhost:6379",
		},
		Session: SessionConfig{
			TimeoutMinutes:     30,
			MaxConcurrentCalls: 20,
			CleanupSchedule:    "@every 5m",
		},
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialIntervalMS: 100,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}
