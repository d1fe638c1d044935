package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the full configuration
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateSession(cfg.Session); err != nil {
		return err
	}
	if err := v.ValidateRetry(cfg.Retry); err != nil {
		return err
	}
	if err := v.ValidateRedisURL(cfg.Redis); err != nil {
		return err
	}
	return v.ValidateLogLevel(cfg.Logging.Level)
}

// ValidateSession checks session lifecycle bounds
func (v *Validator) ValidateSession(cfg SessionConfig) error {
	if cfg.TimeoutMinutes < 1 || cfg.TimeoutMinutes > 480 {
		return fmt.Errorf("session timeout must be between 1 and 480 minutes, got %d", cfg.TimeoutMinutes)
	}
	if cfg.MaxConcurrentCalls < 1 || cfg.MaxConcurrentCalls > 100 {
		return fmt.Errorf("max concurrent calls must be between 1 and 100, got %d", cfg.MaxConcurrentCalls)
	}
	if cfg.CleanupSchedule == "" {
		return fmt.Errorf("cleanup schedule cannot be empty")
	}
	return nil
}

// ValidateRetry checks retry policy bounds
func (v *Validator) ValidateRetry(cfg RetryConfig) error {
	if cfg.MaxRetries < 1 || cfg.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 1 and 10, got %d", cfg.MaxRetries)
	}
	if cfg.InitialIntervalMS < 1 {
		return fmt.Errorf("initial retry interval must be positive, got %dms", cfg.InitialIntervalMS)
	}
	return nil
}

// ValidateRedisURL checks the cache-tier URL when the cache tier is enabled
func (v *Validator) ValidateRedisURL(cfg RedisConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.URL == "" {
		return fmt.Errorf("redis URL cannot be empty when the cache tier is enabled")
	}
	if !strings.HasPrefix(cfg.URL, "redis://") && !strings.HasPrefix(cfg.URL, "rediss://") {
		return fmt.Errorf("invalid redis URL %q (should start with redis:// or rediss://)", cfg.URL)
	}
	return nil
}

// ValidateLogLevel checks the log level name
func (v *Validator) ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level %q (should be debug, info, warn or error)", level)
}
