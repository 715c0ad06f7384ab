package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation, requests flow through
	CircuitOpen                         // Failures exceeded threshold, requests blocked
	CircuitHalfOpen                     // Testing if service recovered
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	Threshold  int           // Number of consecutive failures before opening
	ResetAfter time.Duration // Time to wait before attempting half-open
}

// CircuitStatus is a snapshot of a breaker's state along with the failure
// that most recently drove it there. internal/report surfaces it when a
// case's circuit trips, so its "skipping after N consecutive failures"
// line can say how many consecutive cycles failed and why, instead of just
// the state.
type CircuitStatus struct {
	State       CircuitState
	Failures    int
	LastFailure time.Time
	LastError   error
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	mu            sync.RWMutex
	config        CircuitBreakerConfig
	state         CircuitState
	failures      int
	lastFailure   time.Time
	lastErr       error
	onStateChange func(from, to CircuitState)
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: cfg,
		state:  CircuitClosed,
	}
}

// OnStateChange sets a callback for state changes.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to CircuitState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Status returns a snapshot of the breaker's state, failure count, and the
// error that most recently pushed a failure count, for reporting.
func (cb *CircuitBreaker) Status() CircuitStatus {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return CircuitStatus{
		State:       cb.state,
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
		LastError:   cb.lastErr,
	}
}

// Execute runs fn through the circuit breaker: skipped entirely with
// ErrCircuitOpen while open, otherwise run and its result recorded.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.canExecute() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	cb.recordResult(err)
	return err
}

// canExecute checks if the circuit allows execution.
func (cb *CircuitBreaker) canExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true

	case CircuitOpen:
		if time.Since(cb.lastFailure) >= cb.config.ResetAfter {
			cb.setState(CircuitHalfOpen)
			return true
		}
		return false

	case CircuitHalfOpen:
		return true

	default:
		return false
	}
}

// recordResult records success or failure.
func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.recordSuccess()
	} else {
		cb.recordFailure(err)
	}
}

// recordSuccess handles a successful execution.
func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
		cb.lastErr = nil

	case CircuitHalfOpen:
		cb.failures = 0
		cb.lastErr = nil
		cb.setState(CircuitClosed)
	}
}

// recordFailure handles a failed execution, keeping the error that caused
// it so a tripped breaker can report what it was tripped by.
func (cb *CircuitBreaker) recordFailure(err error) {
	cb.lastFailure = time.Now()
	cb.lastErr = err
	cb.failures++

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.config.Threshold {
			cb.setState(CircuitOpen)
		}

	case CircuitHalfOpen:
		cb.setState(CircuitOpen)
	}
}

// setState transitions to a new state.
func (cb *CircuitBreaker) setState(newState CircuitState) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState

	if cb.onStateChange != nil {
		go cb.onStateChange(oldState, newState)
	}
}

// Reset manually resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.lastErr = nil
	cb.setState(CircuitClosed)
}

// CircuitBreakerRegistry manages one circuit breaker per case name, so a
// case that keeps tripping its breaker doesn't affect the breaker state of
// any other case in the suite.
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	defaults CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates a new registry.
func NewCircuitBreakerRegistry(defaults CircuitBreakerConfig) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*CircuitBreaker),
		defaults: defaults,
	}
}

// Get retrieves or creates a circuit breaker for the given case name.
func (r *CircuitBreakerRegistry) Get(caseName string, cfg *CircuitBreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, exists := r.breakers[caseName]; exists {
		return cb
	}

	useCfg := r.defaults
	if cfg != nil {
		useCfg = *cfg
	}

	cb := NewCircuitBreaker(useCfg)
	r.breakers[caseName] = cb
	return cb
}

// Status returns a snapshot of a specific case's circuit breaker.
func (r *CircuitBreakerRegistry) Status(caseName string) (CircuitStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cb, exists := r.breakers[caseName]; exists {
		return cb.Status(), true
	}
	return CircuitStatus{}, false
}

// ResetAll resets all circuit breakers.
func (r *CircuitBreakerRegistry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
}
