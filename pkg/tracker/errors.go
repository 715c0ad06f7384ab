package tracker

import "fmt"

// UsageError reports a broken invariant on the caller's side: acquiring a
// part with the wrong shape, closing a tracker with no active cycle, and
// so on. These are programmer errors, not test failures — a body that
// triggers one has a bug in how it drives the tracker, not a failing
// assertion.
type UsageError struct {
	Op      string
	Name    string
	Message string
}

func (e *UsageError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("parttrack: %s %q: %s", e.Op, e.Name, e.Message)
	}
	return fmt.Sprintf("parttrack: %s: %s", e.Op, e.Message)
}

func usageErrorf(op, name, format string, args ...interface{}) *UsageError {
	return &UsageError{Op: op, Name: name, Message: fmt.Sprintf(format, args...)}
}
