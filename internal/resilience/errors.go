package resilience

import (
	"context"
	"errors"
)

// PermanentError wraps an error to mark it as non-retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps an error to indicate it should not be retried. A
// case's own body decides this: an assertion failure means "run it again",
// but a setup panic or a fixture that can't be constructed means retrying
// would just fail the same way every time.
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanentError reports whether an error is marked permanent, either
// explicitly via NewPermanentError or because it's a context error: a
// cancelled or timed-out run shouldn't be retried into the same deadline.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return true
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}
