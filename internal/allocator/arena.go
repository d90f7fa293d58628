package allocator

import (
	"fmt"
	"sync"
	"unsafe"
)

// ArenaSlab is the Slab a KindArena region allocates through: a flat buffer
// with a monotonically increasing offset. Individual objects are never
// freed; the whole arena is reclaimed at once when the region releases,
// matching an arena region's release semantics (SPEC_FULL.md §3.2, §4.6) as
// opposed to a trace region's per-object sweep. Exported (rather than the
// pool slab's unexported type) because callers need Reset and PeakUsage,
// which are not part of the narrower Slab interface.
type ArenaSlab struct {
	mu        sync.RWMutex
	buffer    []byte
	offset    uintptr
	allocs    uint64
	peakUsage uintptr
}

// NewArenaSlab constructs a bump-allocated Slab of the given capacity. It
// implements the same Slab interface a trace region's pool-backed slab does,
// so Region.Alloc and Region.Create do not need to know which kind of
// region they are allocating into.
func NewArenaSlab(capacity uintptr) *ArenaSlab {
	return &ArenaSlab{buffer: make([]byte, capacity)}
}

func (b *ArenaSlab) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, fmt.Errorf("allocator: zero size allocation")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.offset+size > uintptr(len(b.buffer)) {
		return nil, ErrExhausted
	}

	ptr := unsafe.Pointer(&b.buffer[b.offset])
	b.offset += size
	b.allocs++

	if b.offset > b.peakUsage {
		b.peakUsage = b.offset
	}

	return ptr, nil
}

// Free is a no-op: a bump allocator cannot reclaim a single allocation.
// Bytes are only reclaimed in bulk, by Reset.
func (b *ArenaSlab) Free(ptr unsafe.Pointer, size uintptr) {}

func (b *ArenaSlab) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Stats{
		AllocCount: b.allocs,
		FreeCount:  0,
		BytesLive:  b.offset,
	}
}

// Reset reclaims the whole arena at once, the only way a bump allocator
// frees memory. A host calls this once a KindArena region's release path
// (outside this package's scope; see SPEC_FULL.md §4.6) has finished with
// it.
func (b *ArenaSlab) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.offset = 0
	b.allocs = 0
}

// PeakUsage reports the largest offset the arena has reached, for
// diagnostics.
func (b *ArenaSlab) PeakUsage() uintptr {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.peakUsage
}
