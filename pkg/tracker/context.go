// Package tracker implements the state machine that drives repeated
// re-execution of a single test-case body so that it visits every nested
// section and every value of every generator defined inside it.
//
// The core idea, unchanged since it was first written for Catch2: a test
// body is straight-line imperative code with conditionally-entered named
// regions. Because execution can't be rewound, the body is re-run once per
// leaf path, and on each run the tracker decides which region to enter and
// which to skip, based on what earlier runs already completed.
//
// A Context is confined to a single goroutine: the driver alternates
// between running the body and calling into the tracker, and nothing here
// takes a lock. Hosts that drive more than one test case concurrently must
// give each goroutine its own Context.
package tracker

import "sync"

// runState is the run-state of the overall cycle, tracked by Context. It is
// distinct from the per-tracker state machine in tracker.go.
type runState int

const (
	runNotStarted runState = iota
	runExecuting
	runCompletedCycle
)

// Context is the per-test-case driver: it owns the root tracker, the
// pointer to the currently-open tracker, and the run-state of the overall
// execution cycle.
type Context struct {
	root    Tracker
	current Tracker
	state   runState
}

// NewContext creates an idle Context. Call StartRun before driving any
// cycles.
func NewContext() *Context {
	return &Context{state: runNotStarted}
}

// StartRun creates a fresh root SectionTracker named "{root}", clears the
// current pointer, sets the run-state to executing, and returns the root.
// It is a usage error to call StartRun while a run is already in progress;
// call EndRun first.
func (c *Context) StartRun() (Tracker, error) {
	if c.root != nil {
		return nil, usageErrorf("StartRun", "", "a run is already in progress; call EndRun first")
	}
	root := newSection(rootName, c, nil)
	c.root = root
	c.current = nil
	c.state = runExecuting
	return root, nil
}

// EndRun drops the root, clears current, and resets the run-state. It is
// idempotent.
func (c *Context) EndRun() {
	c.root = nil
	c.current = nil
	c.state = runNotStarted
}

// StartCycle begins one re-execution of the test body: current is reset to
// the root and the run-state becomes executing. Call this at the top of
// every iteration of the driver loop.
func (c *Context) StartCycle() error {
	if c.root == nil {
		return usageErrorf("StartCycle", "", "no active run; call StartRun first")
	}
	c.current = c.root
	c.state = runExecuting
	return nil
}

// completeCycle marks the run-state as CompletedCycle. Called by every Close
// and Fail once it has moved current up to the closing tracker's parent, so
// the first region to close or fail in a cycle completes that cycle.
func (c *Context) completeCycle() {
	c.state = runCompletedCycle
}

// CompletedCycle reports whether the current cycle has finished.
//
// The root returned by StartRun is a synthetic ancestor that nothing ever
// calls Close or Fail on directly, so its own HasEnded() never becomes
// true. A driver loop's termination condition is always the HasEnded() of
// whatever named region it acquires directly under the root and is
// itself responsible for closing (see RunToCompletion), never the root.
func (c *Context) CompletedCycle() bool {
	return c.state == runCompletedCycle
}

// Root returns the root tracker for the current run, or nil if no run is
// in progress.
func (c *Context) Root() Tracker {
	return c.root
}

// CurrentPart returns the currently-open tracker: the root, or a
// descendant whose state is Executing or ExecutingChildren. It is a usage
// error to call this outside of an active cycle.
func (c *Context) CurrentPart() (Tracker, error) {
	if c.current == nil {
		return nil, usageErrorf("CurrentPart", "", "no current part; call StartCycle first")
	}
	return c.current, nil
}

// setCurrentPart is used internally by tracker open/close transitions.
func (c *Context) setCurrentPart(t Tracker) {
	c.current = t
}

// FindPart delegates to the current tracker's FindChild.
func (c *Context) FindPart(name string) (Tracker, bool) {
	if c.current == nil {
		return nil, false
	}
	return c.current.findChild(name)
}

const rootName = "{root}"

// defaultMu guards the process-global default context. The core does not
// require a singleton; it exists only as a convenience for callers that
// don't want to thread a *Context through their own code, mirroring the
// surface macro's use of a global in the original design. Hosts driving
// more than one test case at a time must not share it — build one Context
// per goroutine instead.
var (
	defaultMu  sync.Mutex
	defaultCtx *Context
)

// Default returns the process-global default Context, creating it on
// first use. It is intended for single-test-case-at-a-time hosts; it is
// not safe for concurrent test cases to share it.
func Default() *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx == nil {
		defaultCtx = NewContext()
	}
	return defaultCtx
}

// ResetDefault discards the process-global default Context. Test helpers
// use this to get a clean slate between test cases that rely on Default().
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCtx = nil
}
