package allocator

import (
	"fmt"
	"sync"
)

// Arena tracks one Slab per region, keyed by the region's owner identifier.
// A region never shares its slab with another region: allocation and
// release_internal both stay single-owner, and the arena exists only so a
// host process can enumerate live regions' slab stats without each region
// exposing its own Slab reference.
type Arena struct {
	mu    sync.RWMutex
	slabs map[uint64]Slab
	cfg   Config
	newFn func(Config) Slab
}

// NewArena creates an arena that lazily builds a fresh Slab per region via
// newFn (NewSlab if nil).
func NewArena(cfg Config, newFn func(Config) Slab) *Arena {
	if newFn == nil {
		newFn = NewSlab
	}

	return &Arena{
		slabs: make(map[uint64]Slab),
		cfg:   cfg,
		newFn: newFn,
	}
}

// Acquire returns the Slab for owner, creating one on first use.
func (a *Arena) Acquire(owner uint64) Slab {
	a.mu.RLock()
	s, ok := a.slabs[owner]
	a.mu.RUnlock()

	if ok {
		return s
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok = a.slabs[owner]; ok {
		return s
	}

	s = a.newFn(a.cfg)
	a.slabs[owner] = s

	return s
}

// Release drops the arena's reference to owner's Slab. It does not free any
// bytes still live in that slab; the caller must have already swept and
// released the region first.
func (a *Arena) Release(owner uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.slabs[owner]; !ok {
		return fmt.Errorf("allocator: arena has no slab for owner %d", owner)
	}

	delete(a.slabs, owner)

	return nil
}

// Aggregate sums Stats across every slab currently held by the arena.
func (a *Arena) Aggregate() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var total Stats
	for _, s := range a.slabs {
		st := s.Stats()
		total.AllocCount += st.AllocCount
		total.FreeCount += st.FreeCount
		total.BytesLive += st.BytesLive
	}

	return total
}

// Len returns the number of regions currently tracked.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.slabs)
}
