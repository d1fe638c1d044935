package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_Session(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		cfg       SessionConfig
		shouldErr bool
	}{
		{"valid", SessionConfig{TimeoutMinutes: 30, MaxConcurrentCalls: 20, CleanupSchedule: "@every 5m"}, false},
		{"zero timeout", SessionConfig{TimeoutMinutes: 0, MaxConcurrentCalls: 20, CleanupSchedule: "@every 5m"}, true},
		{"timeout too large", SessionConfig{TimeoutMinutes: 481, MaxConcurrentCalls: 20, CleanupSchedule: "@every 5m"}, true},
		{"zero max calls", SessionConfig{TimeoutMinutes: 30, MaxConcurrentCalls: 0, CleanupSchedule: "@every 5m"}, true},
		{"max calls too large", SessionConfig{TimeoutMinutes: 30, MaxConcurrentCalls: 101, CleanupSchedule: "@every 5m"}, true},
		{"empty schedule", SessionConfig{TimeoutMinutes: 30, MaxConcurrentCalls: 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSession(tt.cfg)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_RedisURL(t *testing.T) {
	v := NewValidator()

	// Disabled cache tier skips URL validation entirely
	assert.NoError(t, v.ValidateRedisURL(RedisConfig{Enabled: false, URL: ""}))

	assert.NoError(t, v.ValidateRedisURL(RedisConfig{Enabled: true, URL: "redis://localhost:6379"}))
	assert.NoError(t, v.ValidateRedisURL(RedisConfig{Enabled: true, URL: "rediss://cache.internal:6380"}))
	assert.Error(t, v.ValidateRedisURL(RedisConfig{Enabled: true, URL: ""}))
	assert.Error(t, v.ValidateRedisURL(RedisConfig{Enabled: true, URL: "http://localhost:6379"}))
}

func TestValidator_LogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		assert.NoError(t, v.ValidateLogLevel(level), level)
	}
	assert.Error(t, v.ValidateLogLevel("verbose"))
	assert.Error(t, v.ValidateLogLevel(""))
}
