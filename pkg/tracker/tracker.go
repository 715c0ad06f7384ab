package tracker

import "fmt"

// State is the lifecycle state of a single tracker.
type State int

const (
	NotStarted State = iota
	Executing
	ExecutingChildren
	NeedsAnotherRun
	CompletedSuccessfully
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Executing:
		return "Executing"
	case ExecutingChildren:
		return "ExecutingChildren"
	case NeedsAnotherRun:
		return "NeedsAnotherRun"
	case CompletedSuccessfully:
		return "CompletedSuccessfully"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tracker is a named node in the tree, with a lifecycle state machine.
// The only implementations are the ones in this package (Section and
// Index, exposed through this interface) — the method set is
// deliberately sealed by its unexported methods.
type Tracker interface {
	// Name is unique among siblings under one parent.
	Name() string
	// HasStarted is true even after the tracker has ended.
	HasStarted() bool
	// HasEnded reports state ∈ {CompletedSuccessfully, Failed}.
	HasEnded() bool
	IsSuccessfullyCompleted() bool
	// IsOpen reports HasStarted() && !HasEnded().
	IsOpen() bool
	State() State
	// Parent reports the containing tracker, or ok=false for the root.
	Parent() (Tracker, bool)
	// Children reports the trackers discovered under this one so far. A
	// child appears here as soon as it is first acquired, whether or not
	// it has been opened or has ended yet.
	Children() []Tracker

	// Close resolves this tracker's state after draining any descendants
	// left open by an early-exit path through the test body. It does not
	// always end the tracker: one with a still-pending last child stays
	// ExecutingChildren, and one flagged NeedsAnotherRun goes back to
	// Executing. See doClose for the full algorithm.
	Close() error
	// Fail marks this tracker Failed and flags its parent as needing
	// another run, so sibling regions are still explored on a later cycle.
	Fail() error

	addChild(t Tracker) error
	findChild(name string) (Tracker, bool)
	openChild()
	markNeedingAnotherRun()
	open()
}

// base implements the state machine shared by Section and Index. It is
// never used directly — always embedded.
type base struct {
	name     string
	ctx      *Context
	parent   Tracker
	children []Tracker
	st       State

	// self holds the outer value embedding this base (a *Section or an
	// *Index), so that operations which must make "this tracker" current,
	// or which must be found again via a Close() call dispatched through
	// the Tracker interface, resolve to the concrete type and pick up its
	// overrides (only Index.Close overrides anything today).
	self Tracker
}

func (b *base) Name() string                 { return b.name }
func (b *base) HasEnded() bool               { return b.st == CompletedSuccessfully || b.st == Failed }
func (b *base) IsSuccessfullyCompleted() bool { return b.st == CompletedSuccessfully }
func (b *base) HasStarted() bool             { return b.st != NotStarted }
func (b *base) IsOpen() bool                 { return b.HasStarted() && !b.HasEnded() }
func (b *base) State() State                 { return b.st }

func (b *base) Parent() (Tracker, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent, true
}

func (b *base) Children() []Tracker {
	out := make([]Tracker, len(b.children))
	copy(out, b.children)
	return out
}

func (b *base) addChild(t Tracker) error {
	if _, exists := b.findChild(t.Name()); exists {
		return usageErrorf("addChild", t.Name(), "a child named %q already exists under %q", t.Name(), b.name)
	}
	b.children = append(b.children, t)
	return nil
}

func (b *base) findChild(name string) (Tracker, bool) {
	for _, c := range b.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// openChild is the idempotent upward transition: opening a grandchild
// marks every ancestor as "has open descendants" by walking up via
// recursion until it reaches a tracker already in ExecutingChildren.
func (b *base) openChild() {
	if b.st != ExecutingChildren {
		b.st = ExecutingChildren
		if b.parent != nil {
			b.parent.openChild()
		}
	}
}

func (b *base) markNeedingAnotherRun() {
	b.st = NeedsAnotherRun
}

// open makes this tracker the context's current tracker and propagates
// openChild() up the ancestor chain.
func (b *base) open() {
	b.st = Executing
	b.ctx.setCurrentPart(b.self)
	if b.parent != nil {
		b.parent.openChild()
	}
}

// doClose implements the algorithm from spec.md §4.2:
//  1. drain any descendants still open (an early-exit path, or a
//     generator that hasn't naturally advanced out, can leave the
//     context's current tracker pointing below this one);
//  2. resolve this tracker's own state transition;
//  3. move current to the parent and signal cycle completion.
func (b *base) doClose() error {
	for b.ctx.current != b.self {
		if b.ctx.current == nil {
			return usageErrorf("Close", b.name, "no current part while draining open descendants")
		}
		if err := b.ctx.current.Close(); err != nil {
			return err
		}
	}

	switch b.st {
	case CompletedSuccessfully, Failed:
		return nil
	case Executing:
		b.st = CompletedSuccessfully
	case ExecutingChildren:
		if len(b.children) == 0 || b.children[len(b.children)-1].HasEnded() {
			b.st = CompletedSuccessfully
		}
	case NeedsAnotherRun:
		b.st = Executing
	default:
		panic(usageErrorf("Close", b.name, "unexpected state %v", b.st))
	}

	b.ctx.setCurrentPart(b.parent)
	b.ctx.completeCycle()
	return nil
}

// doFail transitions this tracker directly to Failed. Unlike Close, it
// never drains descendants — the caller is reporting that the innermost
// open tracker itself failed, not that an ancestor is being torn down.
func (b *base) doFail() error {
	b.st = Failed
	if b.parent != nil {
		b.parent.markNeedingAnotherRun()
	}
	b.ctx.setCurrentPart(b.parent)
	b.ctx.completeCycle()
	return nil
}

func (b *base) Close() error { return b.doClose() }
func (b *base) Fail() error  { return b.doFail() }
