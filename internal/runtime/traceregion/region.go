package traceregion

import (
	"github.com/orizon-lang/traceregion/internal/allocator"
	regerrors "github.com/orizon-lang/traceregion/internal/errors"
	"github.com/orizon-lang/traceregion/internal/runtime"
)

// RegionKind distinguishes this package's trace regions from sibling kinds
// (arena regions, frozen regions) that a host runtime may also implement.
// Merge and release only ever operate within a kind; mismatches are
// precondition violations.
type RegionKind uint8

const (
	KindTrace RegionKind = iota
	KindArena
)

// Region is a trace region: two rings of objects rooted at a single iso,
// plus the collaborators that track cross-region references.
type Region struct {
	kind RegionKind

	root Object

	primary   ring
	secondary ring

	currentMemoryUsed  uintptr
	previousMemoryUsed uintptr

	remembered *RememberedSet
	extRefs    *ExternalReferenceTable

	slab allocator.Slab

	lastMarked uint64

	metrics *runtime.RegionMetrics
}

// Create allocates a new trace region rooted at root. root must not yet be
// a member of any region; Create stamps its header, reserves its backing
// storage from slab, and places it as the sole element of the primary
// ring.
func Create(root Object, slab allocator.Slab) (*Region, error) {
	return newRegion(KindTrace, root, slab)
}

// CreateArena allocates a new arena region rooted at root, backed by slab
// (typically an *allocator.ArenaSlab). An arena region shares the trace
// region's ring/iso bookkeeping but is released as a whole rather than
// object-by-object; this package sweeps and traces it exactly like a trace
// region, since §4's algorithms are agnostic to how the backing Slab
// reclaims bytes. A host that wants arena-specific semantics (e.g. skipping
// per-object Finalise/Destructor on bulk release) implements that at the
// Slab boundary, not here.
func CreateArena(root Object, slab allocator.Slab) (*Region, error) {
	return newRegion(KindArena, root, slab)
}

func newRegion(kind RegionKind, root Object, slab allocator.Slab) (*Region, error) {
	if root == nil {
		return nil, regerrors.NullPointer("create")
	}

	if root.Size() == 0 {
		return nil, regerrors.InvalidSize(0, "create")
	}

	ptr, err := slab.Alloc(root.Size())
	if err != nil {
		return nil, err
	}

	root.Hdr().SetTag(ClassISO)
	root.Hdr().SetNext(nil)
	root.Hdr().SetStorage(ptr, root.Size())

	r := &Region{
		kind:       kind,
		root:       root,
		remembered: NewRememberedSet(),
		extRefs:    NewExternalReferenceTable(),
		slab:       slab,
	}
	r.primary.head = root
	r.primary.tail = root
	r.currentMemoryUsed = root.Size()

	root.Hdr().SetRegion(r)

	return r, nil
}

// Root returns the region's current iso object.
func (r *Region) Root() Object { return r.root }

// Kind reports whether this is a trace or arena region.
func (r *Region) Kind() RegionKind { return r.kind }

// CurrentMemoryUsed reports bytes in use as of the last sweep, updated
// live by Alloc between sweeps.
func (r *Region) CurrentMemoryUsed() uintptr { return r.currentMemoryUsed }

// PreviousMemoryUsed reports the size-class approximation recorded by the
// last sweep, used as a GC heuristic input by callers.
func (r *Region) PreviousMemoryUsed() uintptr { return r.previousMemoryUsed }

// Remembered returns the region's RememberedSet collaborator.
func (r *Region) Remembered() *RememberedSet { return r.remembered }

// ExternalRefs returns the region's ExternalReferenceTable collaborator.
func (r *Region) ExternalRefs() *ExternalReferenceTable { return r.extRefs }

// AttachMetrics opts r into counter recording: Mark/Sweep/Merge/SwapRoot/
// ReleaseInternal will report into m as they run. A region with no attached
// metrics (the default) records nothing, so tests and callers that don't
// care about GC accounting pay nothing for it.
func (r *Region) AttachMetrics(m *runtime.RegionMetrics) { r.metrics = m }

// Metrics returns the region's attached RegionMetrics, or nil if none was
// attached.
func (r *Region) Metrics() *runtime.RegionMetrics { return r.metrics }

// Alloc allocates obj's backing storage and appends it to the ring whose
// triviality matches obj's, following the region's current primary ring
// head.
func (r *Region) Alloc(obj Object) error {
	if obj == nil {
		return regerrors.NullPointer("alloc")
	}

	if obj.Size() == 0 {
		return regerrors.InvalidSize(0, "alloc")
	}

	ptr, err := r.slab.Alloc(obj.Size())
	if err != nil {
		return err
	}

	obj.Hdr().SetTag(ClassUnmarked)
	obj.Hdr().SetStorage(ptr, obj.Size())

	if r.primary.head != nil && obj.IsTrivial() == r.primary.head.IsTrivial() {
		r.primary.pushHead(obj)
	} else {
		r.secondary.pushHead(obj)
	}

	r.currentMemoryUsed += obj.Size()

	return nil
}

// Iteration kind for AllObjects/Trivial/NonTrivial.
type IterKind uint8

const (
	IterTrivial IterKind = iota
	IterNonTrivial
	IterAllObjects
)

// Iterate returns a diagnostic snapshot of the region's membership. It is
// not used by mark or sweep, which walk the rings directly; it exists for
// tests and introspection tooling per the iteration surface the object
// layer's consumers expect.
func (r *Region) Iterate(kind IterKind) []Object {
	primaryTrivial := r.root.IsTrivial()

	switch kind {
	case IterTrivial:
		if primaryTrivial {
			return r.primary.all()
		}

		return r.secondary.all()
	case IterNonTrivial:
		if primaryTrivial {
			return r.secondary.all()
		}

		return r.primary.all()
	case IterAllObjects:
		return append(r.primary.all(), r.secondary.all()...)
	default:
		return nil
	}
}

// CheckIntegrity runs the debug iteration over both of the region's rings
// and reports the first ring-well-formedness violation it finds: a member
// whose triviality doesn't match its ring's partition, a ring that does not
// terminate at its recorded tail with a nil Next, or a cycle. It is not
// called by Alloc/Mark/Sweep/Merge/SwapRoot — those already maintain the
// invariant by construction — but is available to a caller (tests, the
// demo CLI, a host's consistency checker) that wants to validate a region
// from the outside.
func (r *Region) CheckIntegrity() error {
	primaryTrivial := r.root.IsTrivial()

	if err := r.primary.validate("primary", primaryTrivial); err != nil {
		return err
	}

	if err := r.secondary.validate("secondary", !primaryTrivial); err != nil {
		return err
	}

	if r.primary.tail != r.root {
		return regerrors.RingCorruption("check_integrity", "primary ring's tail is not the region's root")
	}

	return nil
}

func (r *Region) nonTrivialRing() *ring {
	if r.root.IsTrivial() {
		return &r.secondary
	}

	return &r.primary
}

func (r *Region) trivialRing() *ring {
	if r.root.IsTrivial() {
		return &r.primary
	}

	return &r.secondary
}

// checkKind is a precondition helper merge uses to fail fast on region
// kind mismatches.
func checkKind(op string, a, b *Region) error {
	if a.kind != b.kind {
		return regerrors.RegionKindMismatch(op)
	}

	return nil
}
