package traceregion

import regerrors "github.com/orizon-lang/traceregion/internal/errors"

// ring is a singly-linked intrusive list threaded through Header.next.
// The real source models both rings as circular lists that wrap back
// through the region metadata node; Go has no safe way to make metadata
// itself a ring member without embedding an interface sentinel, so this
// implementation tracks head and tail explicitly instead and treats a nil
// Next() as "end of ring". The externally observable invariants (ring
// membership, iso-at-tail-of-primary, O(1) append) are identical.
type ring struct {
	head Object
	tail Object
}

func (r *ring) isEmpty() bool { return r.head == nil }

// pushHead prepends a single object (the O(1) alloc-time append form: the
// hd/tl two-argument form below degenerates to this when hd == tl).
func (r *ring) pushHead(o Object) {
	o.Hdr().SetNext(r.head)
	r.head = o

	if r.tail == nil {
		r.tail = o
	}
}

// pushTail appends a single object at the ring's tail.
func (r *ring) pushTail(o Object) {
	o.Hdr().SetNext(nil)

	if r.tail == nil {
		r.head = o
		r.tail = o

		return
	}

	r.tail.Hdr().SetNext(o)
	r.tail = o
}

// spliceHead prepends the contiguous sublist [hd...tl] (tl reachable from
// hd via Next) immediately before the ring's current head, the form merge
// uses to absorb another region's ring in O(1).
func (r *ring) spliceHead(hd, tl Object) {
	if hd == nil {
		return
	}

	tl.Hdr().SetNext(r.head)
	r.head = hd

	if r.tail == nil {
		r.tail = tl
	}
}

// unlink removes o from the ring if present, relinking around it.
// Singly-linked without a parent pointer on o, so this is O(n); every
// caller in this package unlinks an object it is about to retag or move,
// not a hot-path bulk operation.
func (r *ring) unlink(o Object) bool {
	if r.head == nil {
		return false
	}

	if r.head == o {
		r.head = o.Hdr().Next()
		if r.tail == o {
			r.tail = r.head
		}

		o.Hdr().SetNext(nil)

		return true
	}

	prev := r.head
	cur := prev.Hdr().Next()

	for cur != nil {
		if cur == o {
			prev.Hdr().SetNext(cur.Hdr().Next())
			if r.tail == o {
				r.tail = prev
			}

			o.Hdr().SetNext(nil)

			return true
		}

		prev = cur
		cur = cur.Hdr().Next()
	}

	return false
}

// all returns every object in the ring, head to tail, for diagnostics and
// tests. Production mark/sweep code walks the ring directly rather than
// materializing a slice.
func (r *ring) all() []Object {
	var out []Object
	for cur := r.head; cur != nil; cur = cur.Hdr().Next() {
		out = append(out, cur)
	}

	return out
}

func (r *ring) len() int {
	n := 0
	for cur := r.head; cur != nil; cur = cur.Hdr().Next() {
		n++
	}

	return n
}

// validate walks the ring head to tail, the debug iteration §7 names as the
// way ring corruption is detected. It checks that every member matches
// trivial, that the walk reaches exactly r.tail with a nil Next (the
// terminator a well-formed ring always has), and that it does not cycle.
// Cycle detection uses a visited set rather than trusting a length bound,
// since a corrupted ring is exactly the case where lengths can't be
// trusted.
func (r *ring) validate(name string, trivial bool) error {
	if r.head == nil {
		if r.tail != nil {
			return regerrors.RingCorruption("check_integrity", name+": empty ring has a non-nil tail")
		}

		return nil
	}

	seen := make(map[Object]bool)

	var last Object
	for cur := r.head; cur != nil; cur = cur.Hdr().Next() {
		if seen[cur] {
			return regerrors.RingCorruption("check_integrity", name+": ring revisits a member, indicating a cycle")
		}
		seen[cur] = true

		if cur.IsTrivial() != trivial {
			return regerrors.RingCorruption("check_integrity", name+": member triviality does not match the ring's partition")
		}

		last = cur
	}

	if last != r.tail {
		return regerrors.RingCorruption("check_integrity", name+": walk terminated at a node other than the recorded tail")
	}

	if r.tail.Hdr().Next() != nil {
		return regerrors.RingCorruption("check_integrity", name+": tail does not terminate with a nil Next")
	}

	return nil
}
