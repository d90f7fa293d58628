package traceregion

import "github.com/orizon-lang/traceregion/internal/allocator"

// testObj is a minimal Object used across this package's tests. Real
// object types embed Header directly and generate Trace/FindIsoFields
// from field layout; testObj exposes the same callbacks as plain slices so
// tests can script exact graphs.
type testObj struct {
	hdr Header

	name    string
	trivial bool
	size    uintptr

	refs      []Object // Trace pushes these
	isoFields []Object // FindIsoFields inspects these
	immutable Object   // Immutable() target, defaults to self

	hasExtRef  bool
	finalised  bool
	destructed bool

	events *[]string // when set, Finalise/Destructor append "finalise:"/"destruct:" + name
}

func newObj(name string, trivial bool, size uintptr) *testObj {
	return &testObj{name: name, trivial: trivial, size: size}
}

func (o *testObj) Hdr() *Header { return &o.hdr }

func (o *testObj) Trace(s *Stack) {
	for _, r := range o.refs {
		s.Push(r)
	}
}

func (o *testObj) Finalise() {
	o.finalised = true
	if o.events != nil {
		*o.events = append(*o.events, "finalise:"+o.name)
	}
}

func (o *testObj) Destructor() {
	o.destructed = true
	if o.events != nil {
		*o.events = append(*o.events, "destruct:"+o.name)
	}
}

func (o *testObj) FindIsoFields(owner *Region, collect *[]Object) {
	for _, f := range o.isoFields {
		if f.Hdr().Tag() == ClassISO && f.Hdr().Region() != owner {
			*collect = append(*collect, f)
		}
	}
}

func (o *testObj) Size() uintptr    { return o.size }
func (o *testObj) IsTrivial() bool  { return o.trivial }
func (o *testObj) HasExtRef() bool  { return o.hasExtRef }

func (o *testObj) Immutable() Object {
	if o.immutable != nil {
		return o.immutable
	}

	return o
}

func newTestSlab() allocator.Slab {
	return allocator.NewSlab(allocator.Config{})
}
