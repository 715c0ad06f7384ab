package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithCallback_OutcomeByFailureCount(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries: 2,
		InitDelay:  5 * time.Millisecond,
		MaxDelay:   50 * time.Millisecond,
		Multiplier: 2.0,
	}

	tests := []struct {
		name          string
		failuresFirst int // how many calls fail before fn succeeds
		wantErr       bool
		wantCalls     int
	}{
		{name: "passes first try", failuresFirst: 0, wantErr: false, wantCalls: 1},
		{name: "passes on final retry", failuresFirst: 2, wantErr: false, wantCalls: 3},
		{name: "exhausts every retry", failuresFirst: 99, wantErr: true, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithCallback(context.Background(), cfg, func(ctx context.Context) error {
				calls++
				if calls <= tt.failuresFirst {
					return errors.New("assertion failed")
				}
				return nil
			}, nil)

			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestRetryWithCallback_PermanentErrorSkipsRemainingRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitDelay: 5 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2.0}

	calls := 0
	permanentErr := NewPermanentError(errors.New("fixture could not be constructed"))
	err := RetryWithCallback(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return permanentErr
	}, nil)

	if err != permanentErr {
		t.Errorf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retries for a permanent error), got %d", calls)
	}
}

func TestRetryWithCallback_ContextCancelledMidBackoff(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitDelay: 100 * time.Millisecond, MaxDelay: 1 * time.Second, Multiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := RetryWithCallback(ctx, cfg, func(ctx context.Context) error {
		calls++
		return errors.New("still failing")
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the cancellation to land during the first backoff wait, got %d calls", calls)
	}
}

func TestRetryWithCallback_CallbackSeesEachRetryAttempt(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitDelay: 5 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2.0}

	calls := 0
	var seenAttempts []int
	err := RetryWithCallback(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		seenAttempts = append(seenAttempts, attempt)
		if nextDelay <= 0 {
			t.Errorf("expected a positive backoff delay before retry %d", attempt)
		}
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if len(seenAttempts) != 2 || seenAttempts[0] != 1 || seenAttempts[1] != 2 {
		t.Errorf("expected callback attempts [1 2], got %v", seenAttempts)
	}
}

func TestCalculateDelay(t *testing.T) {
	base := RetryConfig{
		InitDelay:  100 * time.Millisecond,
		MaxDelay:   500 * time.Millisecond,
		Multiplier: 2.0,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "attempt 0 is InitDelay", attempt: 0, want: 100 * time.Millisecond},
		{name: "attempt 1 doubles", attempt: 1, want: 200 * time.Millisecond},
		{name: "attempt 2 doubles again", attempt: 2, want: 400 * time.Millisecond},
		{name: "attempt 3 is capped by MaxDelay", attempt: 3, want: 500 * time.Millisecond},
		{name: "far-out attempt stays capped", attempt: 10, want: 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateDelay(base, tt.attempt); got != tt.want {
				t.Errorf("calculateDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestCalculateDelay_JitterStaysWithinRange(t *testing.T) {
	cfg := RetryConfig{
		InitDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 1.0,
		Jitter:     0.2,
	}

	minDelay := 80 * time.Millisecond
	maxDelay := 120 * time.Millisecond
	for i := 0; i < 50; i++ {
		delay := calculateDelay(cfg, 0)
		if delay < minDelay || delay > maxDelay {
			t.Fatalf("delay %v outside expected jitter range [%v, %v]", delay, minDelay, maxDelay)
		}
	}
}
