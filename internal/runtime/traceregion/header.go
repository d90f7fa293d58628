package traceregion

import "unsafe"

// Header is the intrusive state every region-managed object carries. It is
// meant to be embedded by value in a concrete object type; the region core
// only ever touches it through Object.Hdr().
type Header struct {
	tag    ClassTag
	next   Object
	region *Region // set only while this object is the region's iso

	ptr  unsafe.Pointer // backing storage returned by the region's Slab
	size uintptr
}

// Tag returns the object's current class code.
func (h *Header) Tag() ClassTag { return h.tag }

// SetTag stamps the object's class code.
func (h *Header) SetTag(t ClassTag) { h.tag = t }

// Next returns the object's ring successor, or nil at a ring's tail.
func (h *Header) Next() Object { return h.next }

// SetNext sets the object's ring successor.
func (h *Header) SetNext(o Object) { h.next = o }

// Region returns the owning region, valid only while Tag() == ClassISO.
func (h *Header) Region() *Region { return h.region }

// SetRegion stamps or clears the iso back-pointer.
func (h *Header) SetRegion(r *Region) { h.region = r }

// Storage returns the backing allocation and its size, as handed back by
// the region's Slab at allocation time.
func (h *Header) Storage() (unsafe.Pointer, uintptr) { return h.ptr, h.size }

// SetStorage records the backing allocation and its size.
func (h *Header) SetStorage(ptr unsafe.Pointer, size uintptr) {
	h.ptr = ptr
	h.size = size
}

// Object is the callback contract a region-managed type must implement.
// The region core never allocates or lays out an Object's fields; it only
// calls these methods and mutates the embedded Header.
type Object interface {
	// Hdr returns the object's intrusive header.
	Hdr() *Header
	// Trace pushes the object's outgoing references onto stack, including
	// iso references into subregions; sweep separates those out later via
	// FindIsoFields.
	Trace(stack *Stack)
	// Finalise runs user-visible cleanup. It may read any other object in
	// the same region; nothing in the region has been freed yet.
	Finalise()
	// Destructor runs low-level cleanup. It must not touch other objects:
	// by the time it runs, some region peers may already be freed.
	Destructor()
	// FindIsoFields pushes onto collect every outgoing iso reference whose
	// region differs from owner.
	FindIsoFields(owner *Region, collect *[]Object)
	// Size reports the object's logical size in bytes, used for
	// current_memory_used accounting.
	Size() uintptr
	// IsTrivial reports whether the object has no finaliser, no
	// destructor, and owns no subregions.
	IsTrivial() bool
	// HasExtRef reports whether an ExternalReferenceTable entry points at
	// this object.
	HasExtRef() bool
}

// ImmutableResolver is implemented by objects tagged ClassSCCPtr. Mark
// calls Immutable to canonicalize the reference before recording it in the
// RememberedSet.
type ImmutableResolver interface {
	Immutable() Object
}

// Stack is the scratch DFS worklist mark threads through Trace callbacks.
type Stack struct {
	items []Object
}

// Push adds o to the stack.
func (s *Stack) Push(o Object) {
	s.items = append(s.items, o)
}

// Pop removes and returns the most recently pushed object.
func (s *Stack) Pop() (Object, bool) {
	if len(s.items) == 0 {
		return nil, false
	}

	n := len(s.items) - 1
	o := s.items[n]
	s.items = s.items[:n]

	return o, true
}

// Len reports how many entries remain on the stack.
func (s *Stack) Len() int { return len(s.items) }
