package traceregion

import (
	"time"

	regerrors "github.com/orizon-lang/traceregion/internal/errors"
)

// Mark walks the region's intra-region graph from its root, toggling
// UNMARKED objects to MARKED and delegating SCC_PTR/RC/COWN references to
// the RememberedSet. It runs to completion on the caller's thread: there
// is no timeout and no suspension point.
//
// It returns the number of RememberedSet entries touched during this pass,
// the count a caller hands to Sweep.
func (r *Region) Mark() (uint64, error) {
	start := time.Now()

	stack := &Stack{}
	r.root.Trace(stack)

	var marked uint64

	for {
		p, ok := stack.Pop()
		if !ok {
			break
		}

		switch p.Hdr().Tag() {
		case ClassISO, ClassMarked:
			// Already handled: a subregion root, or an object already
			// visited this pass.
			continue
		case ClassUnmarked:
			p.Hdr().SetTag(ClassMarked)
			p.Trace(stack)
		case ClassSCCPtr:
			resolver, ok := p.(ImmutableResolver)
			if !ok {
				return marked, regerrors.ClassTagOutOfRange("mark", int(ClassSCCPtr))
			}

			q := resolver.Immutable()
			r.remembered.Mark(q, &marked)
		case ClassRC, ClassCown:
			r.remembered.Mark(p, &marked)
		default:
			return marked, regerrors.ClassTagOutOfRange("mark", int(p.Hdr().Tag()))
		}
	}

	r.lastMarked = marked

	if r.metrics != nil {
		r.metrics.RecordMark(time.Since(start))
	}

	return marked, nil
}
