package config

import (
	"fmt"
	"strings"
)

// ValidationError holds details about a configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, "  - "+e.Error())
	}
	return fmt.Sprintf("validation failed with %d error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}

// HasErrors returns true if there are any validation errors.
func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validator validates configuration files.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a config for errors and returns detailed validation
// errors.
func (v *Validator) Validate(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if cfg.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "config name is required"})
	}

	if cfg.MaxCycles < 0 {
		errs = append(errs, ValidationError{Field: "max_cycles", Message: "must not be negative"})
	}

	if cfg.LogLevel != "" && !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("unknown level %q, want one of debug, info, warn, error", cfg.LogLevel),
		})
	}

	if cfg.Retry != nil {
		if cfg.Retry.MaxRetries < 0 {
			errs = append(errs, ValidationError{Field: "retry.max_retries", Message: "must not be negative"})
		}
		if cfg.Retry.CircuitBreaker != nil && cfg.Retry.CircuitBreaker.Threshold <= 0 {
			errs = append(errs, ValidationError{Field: "retry.circuit_breaker.threshold", Message: "must be positive when circuit breaker is configured"})
		}
	}

	return errs
}

// ValidateConfig is a convenience function to validate a config.
func ValidateConfig(cfg *Config) error {
	errs := NewValidator().Validate(cfg)
	if errs.HasErrors() {
		return errs
	}
	return nil
}
