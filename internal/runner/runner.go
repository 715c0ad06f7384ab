// Package runner hosts tracker cases: it owns the per-case Context, drives
// the StartCycle/body/Close loop from spec until the case's tracker tree
// ends, and applies the configured retry and circuit-breaker policy around
// case execution.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keegan-voss/parttrack/internal/config"
	"github.com/keegan-voss/parttrack/internal/logger"
	"github.com/keegan-voss/parttrack/internal/report"
	"github.com/keegan-voss/parttrack/internal/resilience"
	"github.com/keegan-voss/parttrack/pkg/tracker"
)

// Case is a single test case: a name and the body that gets re-run once
// per discovery cycle.
type Case struct {
	Name string
	Body func(t *tracker.T) error
}

// Suite is a named group of cases run together.
type Suite struct {
	Name  string
	Cases []Case
}

// CaseReport summarizes one case's run.
type CaseReport struct {
	ID       string
	Name     string
	Cycles   int
	Attempts int
	Passed   bool
	Err      error
	Duration time.Duration
}

// SuiteReport summarizes a suite run.
type SuiteReport struct {
	Name  string
	Cases []CaseReport
}

// Passed reports whether every case in the suite passed.
func (r SuiteReport) Passed() bool {
	for _, c := range r.Cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

// PassedCount returns how many cases passed.
func (r SuiteReport) PassedCount() int {
	n := 0
	for _, c := range r.Cases {
		if c.Passed {
			n++
		}
	}
	return n
}

// Runner drives cases to completion.
type Runner struct {
	cfg     *config.Config
	log     logger.Logger
	report  *report.Writer
	circuit *resilience.CircuitBreakerRegistry
}

// New builds a Runner from cfg. If cfg enables a circuit breaker, a
// registry is created keyed by case name.
func New(cfg *config.Config, log logger.Logger, rw *report.Writer) *Runner {
	r := &Runner{cfg: cfg, log: log, report: rw}
	if cfg.GetCircuitBreakerThreshold() > 0 {
		r.circuit = resilience.NewCircuitBreakerRegistry(resilience.CircuitBreakerConfig{
			Threshold:  cfg.GetCircuitBreakerThreshold(),
			ResetAfter: cfg.GetCircuitBreakerResetAfter(),
		})
	}
	return r
}

// RunCase drives one case's tracker tree to completion, retrying the whole
// case from a fresh Context when an attempt ends on a transient error.
//
// A case's own cycle-to-cycle recovery (NeedsAnotherRun reopening a
// section so a sibling can still be explored after a failure) is not a
// retry in this sense — it happens within a single attempt, driven by
// runOnce. Retrying here means abandoning an attempt's tracker tree
// entirely and starting over, which is only safe to do between whole
// attempts, never mid-attempt: a section already marked Failed inside one
// attempt can't be reopened by a later attempt sharing its Context, since
// nothing clears a HasEnded() tracker once its cycle has completed.
func (r *Runner) RunCase(ctx context.Context, index, total int, c Case) (CaseReport, error) {
	policy := resilience.StandardRetry
	policy.Name = fmt.Sprintf("case:%s", c.Name)
	policy.MaxRetries = 0
	if r.cfg.RetryEnabled() {
		policy.MaxRetries = r.cfg.GetMaxRetries()
		policy.InitDelay = r.cfg.GetInitialDelay()
	}
	cfg := policy.ToConfig()
	maxAttempts := cfg.MaxRetries + 1

	log := r.log.WithFields(logger.F("case", c.Name))

	var rep CaseReport
	attempt := 0
	fn := func(ctx context.Context) error {
		attempt++
		var err error
		rep, err = r.runOnce(ctx, index, total, c, attempt, maxAttempts)
		if err != nil {
			// runOnce only fails on its own bookkeeping, never on a case's
			// assertions, so a fresh attempt from a new Context wouldn't
			// behave any differently. Don't retry it.
			return resilience.NewPermanentError(err)
		}
		rep.Attempts = attempt
		if rep.Passed {
			return nil
		}
		return rep.Err
	}

	callback := func(n int, err error, nextDelay time.Duration) {
		log.Warn("retrying case after transient failure",
			logger.F("attempt", n), logger.F("error", err), logger.F("delay", nextDelay))
	}

	err := resilience.RetryWithCallback(ctx, cfg, fn, callback)
	switch {
	case err == nil:
		return rep, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return rep, err
	}

	var permErr *resilience.PermanentError
	if errors.As(err, &permErr) && rep.Name == "" {
		return CaseReport{}, permErr.Unwrap()
	}

	// Retries exhausted, or the case body marked its own failure permanent:
	// rep already reflects the final attempt, and that's a failed case, not
	// a RunCase-level error.
	return rep, nil
}

// runOnce drives a single attempt's tracker tree, from a fresh Context, to
// completion: it repeats StartCycle, re-acquires the case's own top-level
// section, and runs the body whenever that section is open, until the
// section itself ends.
func (r *Runner) runOnce(ctx context.Context, index, total int, c Case, attempt, maxAttempts int) (CaseReport, error) {
	id := uuid.NewString()
	log := r.log.WithFields(logger.F("case", c.Name), logger.F("run_id", id))
	start := time.Now()

	tc := tracker.NewContext()
	if _, err := tc.StartRun(); err != nil {
		return CaseReport{}, fmt.Errorf("start run for %q: %w", c.Name, err)
	}
	defer tc.EndRun()

	maxCycles := r.cfg.GetMaxCycles()
	cycles := 0
	var lastErr error
	sawFailure := false
	var testCase tracker.Tracker

	for testCase == nil || !testCase.HasEnded() {
		cycles++
		if cycles > maxCycles {
			return CaseReport{}, fmt.Errorf("case %q exceeded max cycles (%d) without terminating", c.Name, maxCycles)
		}

		if err := tc.StartCycle(); err != nil {
			return CaseReport{}, fmt.Errorf("start cycle %d for %q: %w", cycles, c.Name, err)
		}

		section, err := tracker.AcquireSection(tc, c.Name)
		if err != nil {
			return CaseReport{}, fmt.Errorf("acquire case %q: %w", c.Name, err)
		}
		testCase = section

		if section.IsOpen() {
			log.Debug("running cycle", logger.F("cycle", cycles))
			if r.report != nil {
				r.report.CaseWithRetry(index, total, c.Name, cycles, maxCycles, attempt-1, maxAttempts-1)
			}

			body := func(ctx context.Context) error {
				t := tracker.NewT(tc)
				return c.Body(t)
			}

			if settleErr := tracker.SettleRegion(section, r.execute(ctx, index, total, c.Name, body)); settleErr != nil {
				lastErr = settleErr
				sawFailure = true
				log.Warn("cycle body failed", logger.F("cycle", cycles), logger.F("error", settleErr))
			}
		}
	}

	passed := testCase.IsSuccessfullyCompleted() && !sawFailure
	rep := CaseReport{
		ID:       id,
		Name:     c.Name,
		Cycles:   cycles,
		Passed:   passed,
		Err:      lastErr,
		Duration: time.Since(start),
	}

	if r.report != nil {
		if passed {
			r.report.Passed(index, total, c.Name, cycles)
		} else if attempt == maxAttempts || resilience.IsPermanentError(lastErr) {
			r.report.Failed(index, total, c.Name, lastErr)
		}
	}

	if passed {
		log.Info("case passed", logger.F("cycles", cycles), logger.F("duration", rep.Duration))
	} else {
		log.Error("case failed", logger.F("cycles", cycles), logger.F("duration", rep.Duration), logger.F("error", lastErr))
	}

	return rep, nil
}

// execute runs body directly, or through the case's circuit breaker if one
// is configured. A tripped circuit breaker isn't treated as a case
// failure the way a body error is: it skips this cycle's body and returns
// nil, so the caller settles the region as it would after a passing body.
func (r *Runner) execute(ctx context.Context, index, total int, name string, body resilience.RetryFunc) error {
	if r.circuit == nil {
		return body(ctx)
	}

	cb := r.circuit.Get(name, nil)
	err := cb.Execute(ctx, body)
	if err == resilience.ErrCircuitOpen {
		if r.report != nil {
			status := cb.Status()
			r.report.CircuitOpen(index, total, name, status.Failures, status.LastError)
		}
		return nil
	}
	return err
}

// RunSuite drives every case in s in order. A failing case does not stop
// the suite — case bodies own their own tracker.Fail vs
// infrastructure-error distinction; it stops early only when RunCase
// itself returns an error. A panic in a case body is not recovered.
func (r *Runner) RunSuite(ctx context.Context, s Suite) (SuiteReport, error) {
	rep := SuiteReport{Name: s.Name}
	total := len(s.Cases)

	for i, c := range s.Cases {
		caseRep, err := r.RunCase(ctx, i+1, total, c)
		if err != nil {
			return rep, fmt.Errorf("suite %q: %w", s.Name, err)
		}
		rep.Cases = append(rep.Cases, caseRep)
	}

	if r.report != nil {
		r.report.Summary(rep.PassedCount(), total)
	}

	return rep, nil
}
