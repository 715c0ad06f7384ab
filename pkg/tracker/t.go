package tracker

// T is a thin ergonomic wrapper around a Context, giving test bodies the
// Run/Index calling convention a surface macro would otherwise expand to.
// It does not hide anything: AcquireSection, AcquireIndex, Close, and Fail
// remain the real API, and T just sequences them the way a host always
// would — acquire, check IsOpen, run or skip, close or fail.
type T struct {
	Ctx *Context
}

// NewT wraps ctx.
func NewT(ctx *Context) *T {
	return &T{Ctx: ctx}
}

// Run acquires the named section under the current tracker and, if it's
// open this cycle, invokes fn. A non-nil return from fn settles the
// section via SettleRegion; a nil return closes it. If the section isn't
// open this cycle (already ended, or the cycle already completed), fn is
// skipped entirely.
func (t *T) Run(name string, fn func(*T) error) error {
	section, err := AcquireSection(t.Ctx, name)
	if err != nil {
		return err
	}
	if !section.IsOpen() {
		return nil
	}
	return SettleRegion(section, fn(t))
}

// Index acquires the named generator under the current tracker and, if
// it's open this cycle, invokes fn with the generator's current index. A
// non-nil return from fn settles the generator via SettleRegion.
func (t *T) Index(name string, size int, fn func(t *T, index int) error) error {
	idx, err := AcquireIndex(t.Ctx, name, size)
	if err != nil {
		return err
	}
	if !idx.IsOpen() {
		return nil
	}
	return SettleRegion(idx, fn(t, idx.Index()))
}

// SettleRegion is the shared close-or-fail decision behind Run, Index, and
// RunToCompletion: it fails tr directly only when tr is itself the
// innermost tracker the error surfaced from. If some nested region already
// recorded the failure — which leaves tr flagged NeedsAnotherRun via
// markNeedingAnotherRun — tr is closed instead, so doClose's
// NeedsAnotherRun branch reopens it for the next cycle rather than ending
// it. bodyErr is returned unchanged either way, for callers that want to
// know a cycle's body raised an error without caring which tracker
// ultimately absorbed it.
//
// Hosts that drive a region's Close/Fail by hand instead of going through
// Run or Index (see internal/runner) should call this rather than
// reimplementing the rule, so a nested failure is never double-reported
// against an ancestor that only needed reopening.
func SettleRegion(tr Tracker, bodyErr error) error {
	if bodyErr != nil && tr.State() != NeedsAnotherRun {
		if failErr := tr.Fail(); failErr != nil {
			return failErr
		}
		return bodyErr
	}
	if err := tr.Close(); err != nil {
		return err
	}
	return bodyErr
}

// RunToCompletion drives ctx through repeated cycles of a single named
// top-level region until that region itself ends: it starts a cycle,
// acquires name directly under ctx's current part, runs body if the
// region is open this cycle, and closes or fails it, stopping once the
// region reports HasEnded(). This is the informative driver loop from
// spec.md §6 packaged for hosts that only need to drive one region
// per run — internal/runner drives cases itself so it can report
// per-cycle progress, run each cycle's body through its circuit breaker,
// and apply retry policy around each whole attempt.
//
// It returns the region's final tracker and the error from the last
// cycle whose body failed, if any; a non-nil error does not necessarily
// mean the region failed overall (call IsSuccessfullyCompleted on the
// returned tracker), since an earlier failure can be followed by a
// disjoint sibling path completing on a later cycle.
func RunToCompletion(ctx *Context, name string, body func(t *T) error) (Tracker, error) {
	var region Tracker
	var lastErr error

	for region == nil || !region.HasEnded() {
		if err := ctx.StartCycle(); err != nil {
			return nil, err
		}

		var err error
		region, err = AcquireSection(ctx, name)
		if err != nil {
			return nil, err
		}

		if region.IsOpen() {
			t := NewT(ctx)
			if err := SettleRegion(region, body(t)); err != nil {
				lastErr = err
			}
		}
	}

	return region, lastErr
}
