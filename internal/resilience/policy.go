package resilience

import "time"

// RetryPolicy is a named retry configuration. internal/runner starts each
// case from StandardRetry and overrides MaxRetries/InitDelay from the
// case's own config before converting it with ToConfig for
// RetryWithCallback. Name is not carried into the RetryConfig; the retry
// loop only ever sees the plain RetryConfig.
type RetryPolicy struct {
	Name       string
	MaxRetries int
	InitDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64
}

// StandardRetry is the default policy a case's retry settings are layered
// onto: three retries after the first attempt, starting at half a second and doubling up to 30s,
// with light jitter to keep retried cases from all waking up in lockstep.
var StandardRetry = RetryPolicy{
	Name:       "standard-retry",
	MaxRetries: 3,
	InitDelay:  500 * time.Millisecond,
	MaxDelay:   30 * time.Second,
	Multiplier: 2.0,
	Jitter:     0.1,
}

// ToConfig converts a RetryPolicy to the RetryConfig RetryWithCallback
// expects.
func (p RetryPolicy) ToConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: p.MaxRetries,
		InitDelay:  p.InitDelay,
		MaxDelay:   p.MaxDelay,
		Multiplier: p.Multiplier,
		Jitter:     p.Jitter,
	}
}
