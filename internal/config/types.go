package config

import "time"

// Config holds the settings for a runner invocation: how many cycles it is
// allowed to spend discovering a test case's sections and generators, how
// it should log, and whether case failures get a retry policy applied.
type Config struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	MaxCycles   int          `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty"`
	Color       *bool        `json:"color,omitempty" yaml:"color,omitempty"`
	LogLevel    string       `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Retry       *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
}

// RetryConfig controls whether internal/runner wraps a case body in a retry
// policy, and with what backoff and circuit breaker settings.
type RetryConfig struct {
	Enabled        bool                  `json:"enabled" yaml:"enabled"`
	MaxRetries     int                   `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	InitialDelay   string                `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// CircuitBreakerConfig defines circuit breaker settings applied around a
// case body's transient failures.
type CircuitBreakerConfig struct {
	Threshold  int    `json:"threshold" yaml:"threshold"`
	ResetAfter string `json:"reset_after,omitempty" yaml:"reset_after,omitempty"`
}

// defaultMaxCycles caps a run when the config doesn't set one, guarding
// against a body with a bug that never lets its tracker finish.
const defaultMaxCycles = 100000

// GetMaxCycles returns the configured cycle cap, or defaultMaxCycles if
// unset or non-positive.
func (c *Config) GetMaxCycles() int {
	if c == nil || c.MaxCycles <= 0 {
		return defaultMaxCycles
	}
	return c.MaxCycles
}

// ColorEnabled reports whether output should be colorized. Defaults to true.
func (c *Config) ColorEnabled() bool {
	if c == nil || c.Color == nil {
		return true
	}
	return *c.Color
}

// GetLogLevel returns the configured log level, defaulting to "info".
func (c *Config) GetLogLevel() string {
	if c == nil || c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

// RetryEnabled reports whether case bodies should be wrapped in a retry
// policy.
func (c *Config) RetryEnabled() bool {
	return c != nil && c.Retry != nil && c.Retry.Enabled
}

// GetMaxRetries returns the configured retry count, defaulting to 0.
func (c *Config) GetMaxRetries() int {
	if c == nil || c.Retry == nil {
		return 0
	}
	return c.Retry.MaxRetries
}

// GetInitialDelay parses and returns the configured initial retry delay,
// defaulting to 1 second.
func (c *Config) GetInitialDelay() time.Duration {
	if c == nil || c.Retry == nil || c.Retry.InitialDelay == "" {
		return time.Second
	}
	d, err := time.ParseDuration(c.Retry.InitialDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// GetCircuitBreakerThreshold returns the configured failure threshold, or 0
// if no circuit breaker is configured.
func (c *Config) GetCircuitBreakerThreshold() int {
	if c == nil || c.Retry == nil || c.Retry.CircuitBreaker == nil {
		return 0
	}
	return c.Retry.CircuitBreaker.Threshold
}

// GetCircuitBreakerResetAfter parses the circuit breaker reset duration,
// defaulting to 30 seconds.
func (c *Config) GetCircuitBreakerResetAfter() time.Duration {
	if c == nil || c.Retry == nil || c.Retry.CircuitBreaker == nil || c.Retry.CircuitBreaker.ResetAfter == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Retry.CircuitBreaker.ResetAfter)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
