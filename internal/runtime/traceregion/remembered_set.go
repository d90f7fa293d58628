package traceregion

import "sync"

// remEntry tracks one outbound reference to an immutable or cown target,
// refcount-integrated so multiple region-internal pointers to the same
// target share one entry.
type remEntry struct {
	refcount int
	touched  bool // set by Mark during the current pass
}

// RememberedSet tracks this region's references out to immutable SCC
// representatives, RC handles, and cown objects. Its methods take an
// internal mutex, although the owning actor is always the sole mutator,
// matching every other region operation.
type RememberedSet struct {
	mu      sync.Mutex
	entries map[Object]*remEntry
}

// NewRememberedSet creates an empty set.
func NewRememberedSet() *RememberedSet {
	return &RememberedSet{entries: make(map[Object]*remEntry)}
}

// Insert records a reference out to obj, optionally transferring an
// incoming refcount rather than adding a fresh one.
func (s *RememberedSet) Insert(obj Object, transfer int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[obj]
	if !ok {
		e = &remEntry{}
		s.entries[obj] = e
	}

	if transfer > 0 {
		e.refcount += transfer
	} else {
		e.refcount++
	}
}

// Mark is called during mark for every SCC_PTR/RC/COWN reference reached.
// It records obj if not already present, and increments marked the first
// time obj is touched in this pass (so sweep_set can later tell survivors
// from stale entries).
func (s *RememberedSet) Mark(obj Object, marked *uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[obj]
	if !ok {
		e = &remEntry{refcount: 1}
		s.entries[obj] = e
	}

	if !e.touched {
		e.touched = true
		*marked++
	}
}

// SweepSet drops every entry not touched since the last Mark pass,
// decrementing refcounts. expectedMarked is the count Mark returned; it
// exists for callers that want to assert no entries went missing, and is
// otherwise advisory.
func (s *RememberedSet) SweepSet(expectedMarked uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var touched uint64

	for obj, e := range s.entries {
		if !e.touched {
			delete(s.entries, obj)

			continue
		}

		touched++
		e.touched = false
	}

	_ = expectedMarked
	_ = touched
}

// MergeFrom unions other's entries into s, summing refcounts for targets
// present in both.
func (s *RememberedSet) MergeFrom(other *RememberedSet) {
	other.mu.Lock()
	defer other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for obj, oe := range other.entries {
		if e, ok := s.entries[obj]; ok {
			e.refcount += oe.refcount
		} else {
			s.entries[obj] = &remEntry{refcount: oe.refcount}
		}
	}
}

// Len reports how many distinct targets are currently remembered.
func (s *RememberedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// RefCount reports obj's current refcount, or 0 if it is not remembered.
func (s *RememberedSet) RefCount(obj Object) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[obj]; ok {
		return e.refcount
	}

	return 0
}
