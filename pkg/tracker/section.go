package tracker

// Section is a tracker whose children are populated as the test body
// executes; it completes successfully when its executing phase finishes
// with no child still pending.
type Section struct {
	base
}

func newSection(name string, ctx *Context, parent Tracker) *Section {
	s := &Section{base: base{name: name, ctx: ctx, parent: parent, st: NotStarted}}
	s.self = s
	return s
}

// AcquireSection finds the existing Section child of the context's current
// tracker with the given name, or creates and attaches one. If the section
// is eligible this cycle (the cycle hasn't already completed, and the
// section hasn't already ended), it is opened and becomes current;
// otherwise the existing node is returned unopened so the caller can query
// IsOpen() and skip its region's body.
//
// It is a usage error to acquire a name that already exists under the
// current tracker as a non-section (e.g. a generator of the same name).
func AcquireSection(ctx *Context, name string) (*Section, error) {
	current, err := ctx.CurrentPart()
	if err != nil {
		return nil, err
	}

	var section *Section
	if existing, ok := current.findChild(name); ok {
		s, ok := existing.(*Section)
		if !ok {
			return nil, usageErrorf("AcquireSection", name, "already exists as a %s under %q", kindOf(existing), current.Name())
		}
		section = s
	} else {
		section = newSection(name, ctx, current)
		if err := current.addChild(section); err != nil {
			return nil, err
		}
	}

	if !ctx.CompletedCycle() && !section.HasEnded() {
		section.open()
	}
	return section, nil
}
