package tracker

// Index is a tracker representing a generator over size values. It
// behaves like a Section per index, advancing its index each cycle until
// exhausted.
type Index struct {
	base
	size  int
	index int
}

func newIndex(name string, ctx *Context, parent Tracker, size int) *Index {
	i := &Index{base: base{name: name, ctx: ctx, parent: parent, st: NotStarted}, size: size, index: -1}
	i.self = i
	return i
}

// Size returns the fixed number of values this generator yields.
func (i *Index) Size() int { return i.size }

// Index returns the current index. It is only meaningful after the
// generator has been opened at least once.
func (i *Index) Index() int { return i.index }

// moveNext advances to the next generator value. Each index is a fresh
// iteration of everything nested inside the generator, so the children
// discovered under the previous index are discarded — they'll be
// rediscovered from scratch as the body re-executes under the new index.
func (i *Index) moveNext() {
	i.index++
	i.children = nil
}

// Close overrides the base algorithm: after the base close resolves this
// tracker to CompletedSuccessfully, an Index that hasn't yet yielded all
// size values reopens itself as Executing so a later cycle advances it
// again. Only once index reaches size-1 does it stay completed.
func (i *Index) Close() error {
	if err := i.doClose(); err != nil {
		return err
	}
	if i.st == CompletedSuccessfully && i.index < i.size-1 {
		i.st = Executing
	}
	return nil
}

// AcquireIndex finds the existing Index child of the context's current
// tracker with the given name, or creates and attaches one sized to size.
// If the generator is eligible this cycle, it advances to the next index
// (unless it's already mid-way through executing its children from a
// previous acquire this same cycle) and opens.
//
// It is a usage error to acquire a name that already exists as a
// non-generator, or to acquire the same name under the same parent with a
// different size across cycles.
func AcquireIndex(ctx *Context, name string, size int) (*Index, error) {
	current, err := ctx.CurrentPart()
	if err != nil {
		return nil, err
	}

	var idx *Index
	if existing, ok := current.findChild(name); ok {
		i, ok := existing.(*Index)
		if !ok {
			return nil, usageErrorf("AcquireIndex", name, "already exists as a %s under %q", kindOf(existing), current.Name())
		}
		if i.size != size {
			return nil, usageErrorf("AcquireIndex", name, "size mismatch: previously acquired with size %d, now %d", i.size, size)
		}
		idx = i
	} else {
		idx = newIndex(name, ctx, current, size)
		if err := current.addChild(idx); err != nil {
			return nil, err
		}
	}

	if !ctx.CompletedCycle() && !idx.HasEnded() {
		if idx.st != ExecutingChildren {
			idx.moveNext()
		}
		idx.open()
	}
	return idx, nil
}

func kindOf(t Tracker) string {
	switch t.(type) {
	case *Section:
		return "section"
	case *Index:
		return "generator"
	default:
		return "tracker"
	}
}
