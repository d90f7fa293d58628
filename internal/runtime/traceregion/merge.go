package traceregion

import (
	"github.com/orizon-lang/traceregion/internal/allocator"
	regerrors "github.com/orizon-lang/traceregion/internal/errors"
)

// Merge absorbs other into into, splicing both of other's rings in O(1)
// and folding its memory accounting and collaborators into into. other's
// former root keeps its ISO tag; it is a regular, demoted member of into's
// ring now, and mark's ISO branch will skip tracing through it until some
// later mutation re-tags it, whether or not the new root references it.
// Objects reachable only through the demoted root are therefore not marked
// by the next GC and are reclaimed; a caller that wants them kept must
// reference them from the new root's graph directly (see DESIGN.md).
func Merge(into, other *Region) error {
	if into == nil || other == nil {
		return regerrors.NullPointer("merge")
	}

	if err := checkKind("merge", into, other); err != nil {
		return err
	}

	if other.root.Hdr().Tag() != ClassISO {
		return regerrors.NotISO("merge")
	}

	appendRingByTriviality(into, &other.primary, other.root.IsTrivial())
	appendRingByTriviality(into, &other.secondary, !other.root.IsTrivial())

	if into.currentMemoryUsed > ^uintptr(0)-other.currentMemoryUsed {
		return regerrors.IntegerOverflow("merge.currentMemoryUsed", into.currentMemoryUsed, other.currentMemoryUsed)
	}
	into.currentMemoryUsed += other.currentMemoryUsed

	if into.previousMemoryUsed > ^uintptr(0)-other.previousMemoryUsed {
		return regerrors.IntegerOverflow("merge.previousMemoryUsed", into.previousMemoryUsed, other.previousMemoryUsed)
	}
	// The source folds previous_memory_used in by adding it twice, almost
	// certainly a typo. This sums the two size-class approximations once.
	into.previousMemoryUsed = allocator.SizeClassOf(into.previousMemoryUsed + other.previousMemoryUsed)

	into.extRefs.Merge(other.extRefs)
	into.remembered.MergeFrom(other.remembered)

	if into.metrics != nil {
		into.metrics.RecordMerge()
	}

	return nil
}

// appendRingByTriviality splices src (a whole ring, head to tail) into
// whichever of dst's two rings matches trivial.
func appendRingByTriviality(dst *Region, src *ring, trivial bool) {
	if src.isEmpty() {
		return
	}

	if trivial == dst.root.IsTrivial() {
		dst.primary.spliceHead(src.head, src.tail)
	} else {
		dst.secondary.spliceHead(src.head, src.tail)
	}
}

// SwapRoot replaces the region's iso with next, a mutable object already
// in one of the region's rings. The region's current root must still be
// tagged ISO.
func SwapRoot(r *Region, next Object) error {
	if r == nil || next == nil {
		return regerrors.NullPointer("swap_root")
	}

	prev := r.root

	if prev.Hdr().Tag() != ClassISO {
		return regerrors.NotISO("swap_root")
	}

	if next == prev {
		return nil
	}

	if prev.IsTrivial() == next.IsTrivial() {
		if !r.primary.unlink(next) {
			return regerrors.NotRegionMember("swap_root")
		}

		prev.Hdr().SetNext(next)
		next.Hdr().SetNext(nil)
		r.primary.tail = next
	} else {
		if !r.secondary.unlink(next) {
			return regerrors.NotRegionMember("swap_root")
		}

		r.primary, r.secondary = r.secondary, r.primary
		r.primary.pushTail(next)
	}

	prev.Hdr().SetTag(ClassUnmarked)
	prev.Hdr().SetRegion(nil)

	next.Hdr().SetTag(ClassISO)
	next.Hdr().SetRegion(r)

	r.root = next

	if r.metrics != nil {
		r.metrics.RecordSwapRoot()
	}

	return nil
}
