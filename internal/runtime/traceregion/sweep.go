package traceregion

import (
	"time"

	"github.com/orizon-lang/traceregion/internal/allocator"
	regerrors "github.com/orizon-lang/traceregion/internal/errors"
)

// SweepAll selects whether Sweep collects the root along with everything
// else (region release) or leaves it standing (an ordinary GC pass).
type SweepAll bool

const (
	SweepRootSurvives SweepAll = false
	SweepEverything   SweepAll = true
)

// Sweep reclaims every UNMARKED object, clears MARKED objects back to
// UNMARKED, and updates memory accounting. marked is the count Mark
// returned; Sweep passes it on to RememberedSet.SweepSet, which keeps the
// entries Mark touched this pass and drops the rest.
//
// It returns the iso objects FindIsoFields discovered rooting subregions
// that became unreachable this pass; the caller is responsible for
// releasing them.
func (r *Region) Sweep(all SweepAll, marked uint64) ([]Object, error) {
	start := time.Now()

	r.currentMemoryUsed = 0

	var before int
	if r.metrics != nil {
		before = r.primary.len() + r.secondary.len()
	}

	var gc []Object

	if err := r.sweepRing(r.nonTrivialRing(), bool(all), false, &gc); err != nil {
		return nil, err
	}

	if err := r.sweepRing(r.trivialRing(), bool(all), true, &gc); err != nil {
		return nil, err
	}

	var collect []Object
	for _, obj := range gc {
		obj.FindIsoFields(r, &collect)
	}

	for _, obj := range gc {
		obj.Destructor()

		if r.metrics != nil {
			r.metrics.RecordDestructor()
		}

		ptr, size := obj.Hdr().Storage()
		r.slab.Free(ptr, size)
	}

	r.remembered.SweepSet(marked)
	r.previousMemoryUsed = allocator.SizeClassOf(r.currentMemoryUsed)

	if r.metrics != nil {
		freed := before - (r.primary.len() + r.secondary.len())
		r.metrics.RecordSweep(time.Since(start), uint64(freed))
		r.metrics.SetMemoryUsed(r.currentMemoryUsed)
	}

	return collect, nil
}

// GC runs a full mark/sweep cycle that leaves the root standing, the
// operation most callers mean by "gc(root)".
func (r *Region) GC() ([]Object, error) {
	marked, err := r.Mark()
	if err != nil {
		return nil, err
	}

	return r.Sweep(SweepRootSurvives, marked)
}

// sweepRing walks ring from head to tail, unlinking and reclaiming
// UNMARKED objects, clearing MARKED ones back to UNMARKED, and accounting
// every surviving object's size. It stops at the first ISO it encounters
// (the ring's tail, by invariant), treating that encounter according to
// all.
func (r *Region) sweepRing(rg *ring, all, trivial bool, gc *[]Object) error {
	var prev Object

	cur := rg.head

	for cur != nil {
		next := cur.Hdr().Next()

		switch cur.Hdr().Tag() {
		case ClassISO:
			if !all {
				r.currentMemoryUsed += cur.Size()

				return nil
			}

			if prev == nil {
				rg.head = next
			} else {
				prev.Hdr().SetNext(next)
			}

			rg.tail = prev

			r.sweepObject(cur, trivial, gc)

			return nil
		case ClassMarked:
			r.currentMemoryUsed += cur.Size()
			cur.Hdr().SetTag(ClassUnmarked)
			prev = cur
			cur = next
		case ClassUnmarked:
			if prev == nil {
				rg.head = next
			} else {
				prev.Hdr().SetNext(next)
			}

			if rg.tail == cur {
				rg.tail = prev
			}

			r.sweepObject(cur, trivial, gc)
			cur = next
		default:
			return regerrors.ClassTagOutOfRange("sweep", int(cur.Hdr().Tag()))
		}
	}

	return nil
}

// sweepObject dispatches on ring kind: trivial objects are deallocated
// immediately, non-trivial objects are finalised and queued for the
// two-phase teardown that follows both ring walks.
func (r *Region) sweepObject(obj Object, trivial bool, gc *[]Object) {
	if trivial {
		if obj.HasExtRef() {
			r.extRefs.Erase(obj)
		}

		ptr, size := obj.Hdr().Storage()
		r.slab.Free(ptr, size)

		return
	}

	obj.Finalise()

	if r.metrics != nil {
		r.metrics.RecordFinalizer()
	}

	*gc = append(*gc, obj)
}
