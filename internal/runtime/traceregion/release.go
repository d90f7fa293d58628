package traceregion

// ReleaseInternal tears a region down completely. Unlike an ordinary GC
// cycle it does not mark first: every object still carries whatever tag
// the last sweep left it in (UNMARKED, since MARKED is always cleared
// before a sweep returns), so sweeping with SweepEverything and no prior
// mark reclaims the whole region, root included, in one pass. Subregion
// roots discovered during the sweep are returned for the caller to drain
// into its own release worklist; each iso has a unique owner at the
// moment of release, so there is no need to serialize this against other
// actors.
func (r *Region) ReleaseInternal() ([]Object, error) {
	collect, err := r.Sweep(SweepEverything, 0)
	if err != nil {
		return nil, err
	}

	r.root = nil
	r.primary = ring{}
	r.secondary = ring{}

	if r.metrics != nil {
		r.metrics.RecordRelease()
	}

	return collect, nil
}

// Release drains worklist (seeded by a prior ReleaseInternal's returned
// subregion roots) by releasing each region reachable from it. Arena-kind
// roots are out of scope for this package and are simply skipped; a host
// runtime that implements arena regions would dispatch to its own release
// path here instead.
func Release(worklist []Object) {
	for len(worklist) > 0 {
		iso := worklist[0]
		worklist = worklist[1:]

		hdr := iso.Hdr()
		if hdr.Tag() != ClassISO {
			continue
		}

		reg := hdr.Region()
		if reg == nil || reg.Kind() != KindTrace {
			continue
		}

		more, err := reg.ReleaseInternal()
		if err != nil {
			continue
		}

		worklist = append(worklist, more...)
	}
}
