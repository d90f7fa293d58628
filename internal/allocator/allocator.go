// Package allocator provides the slab allocator the trace-region collector
// allocates raw object storage from. The region core never manages bytes
// itself: it asks a Slab for size-classed memory and returns it wholesale
// when an object is swept. Everything about page acquisition, coalescing
// and arena growth lives behind this boundary and is out of scope for the
// collector proper.
package allocator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Size classes a Slab rounds requests up to. Rounding keeps the number of
// distinct buffer shapes small enough for sync.Pool to reuse effectively.
const (
	SizeClassTiny   uintptr = 64
	SizeClassSmall  uintptr = 128
	SizeClassMedium uintptr = 256
	SizeClassLarge  uintptr = 512
	SizeClassHuge   uintptr = 1024
)

var sizeClasses = [...]uintptr{
	SizeClassTiny,
	SizeClassSmall,
	SizeClassMedium,
	SizeClassLarge,
	SizeClassHuge,
}

// SizeClassOf rounds size up to the smallest size class that holds it.
// Requests larger than the largest class pass through unrounded; Slab
// implementations fall back to a direct allocation for those.
func SizeClassOf(size uintptr) uintptr {
	for _, c := range sizeClasses {
		if size <= c {
			return c
		}
	}

	return size
}

// SizeClassIndex returns the approximate size-class bucket for used bytes,
// the same kind of compact approximation a region keeps as
// previous_memory_used across a GC heuristic rather than an exact byte
// count.
func SizeClassIndex(usedBytes uintptr) uintptr {
	for i, c := range sizeClasses {
		if usedBytes <= c {
			return uintptr(i)
		}
	}

	return uintptr(len(sizeClasses))
}

// SizeClassToSize converts a SizeClassIndex bucket back to its
// representative byte size.
func SizeClassToSize(index uintptr) uintptr {
	if int(index) >= len(sizeClasses) {
		return sizeClasses[len(sizeClasses)-1]
	}

	return sizeClasses[index]
}

// Slab is the allocator boundary a trace region allocates through. It is
// deliberately narrow: the region core owns liveness (mark/sweep), the slab
// owns bytes.
type Slab interface {
	Alloc(size uintptr) (unsafe.Pointer, error)
	Free(ptr unsafe.Pointer, size uintptr)
	Stats() Stats
}

// Stats reports slab-level bookkeeping, independent of any region's own
// accounting.
type Stats struct {
	AllocCount uint64
	FreeCount  uint64
	BytesLive  uintptr
}

// Config tunes a Slab instance.
type Config struct {
	// MaxLiveBytes bounds total outstanding allocations; zero disables the
	// check and lets the host OS be the limit.
	MaxLiveBytes uintptr
}

// ErrExhausted is returned by Alloc when Config.MaxLiveBytes would be
// exceeded.
var ErrExhausted = fmt.Errorf("allocator: slab exhausted")

// poolSlab is the default Slab: one sync.Pool per size class, with large
// requests falling back to a direct heap allocation. It is a bootstrap
// stand-in for the page-level slab allocator a production runtime would
// plug in here.
type poolSlab struct {
	pools     [len(sizeClasses)]sync.Pool
	cfg       Config
	liveBytes int64
	allocs    uint64
	frees     uint64
}

// NewSlab constructs the default pool-backed Slab.
func NewSlab(cfg Config) Slab {
	s := &poolSlab{cfg: cfg}
	for i, c := range sizeClasses {
		class := c
		s.pools[i].New = func() interface{} {
			buf := make([]byte, class)
			return &buf
		}
	}

	return s
}

func (s *poolSlab) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, fmt.Errorf("allocator: zero size allocation")
	}

	if s.cfg.MaxLiveBytes != 0 && uintptr(atomic.LoadInt64(&s.liveBytes))+size > s.cfg.MaxLiveBytes {
		return nil, ErrExhausted
	}

	idx := classIndexFor(size)

	var ptr unsafe.Pointer
	if idx < len(sizeClasses) {
		buf := s.pools[idx].Get().(*[]byte)
		if uintptr(len(*buf)) < size {
			*buf = make([]byte, sizeClasses[idx])
		}

		ptr = unsafe.Pointer(&(*buf)[0])
	} else {
		buf := make([]byte, size)
		ptr = unsafe.Pointer(&buf[0])
	}

	atomic.AddInt64(&s.liveBytes, int64(size))
	atomic.AddUint64(&s.allocs, 1)

	return ptr, nil
}

func (s *poolSlab) Free(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}

	idx := classIndexFor(size)
	if idx < len(sizeClasses) {
		buf := (*[1 << 30]byte)(ptr)[:sizeClasses[idx]:sizeClasses[idx]]
		s.pools[idx].Put(&buf)
	}

	atomic.AddInt64(&s.liveBytes, -int64(size))
	atomic.AddUint64(&s.frees, 1)
}

func (s *poolSlab) Stats() Stats {
	return Stats{
		AllocCount: atomic.LoadUint64(&s.allocs),
		FreeCount:  atomic.LoadUint64(&s.frees),
		BytesLive:  uintptr(atomic.LoadInt64(&s.liveBytes)),
	}
}

func classIndexFor(size uintptr) int {
	for i, c := range sizeClasses {
		if size <= c {
			return i
		}
	}

	return len(sizeClasses)
}
