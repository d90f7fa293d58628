// Package runtime hosts the ambient concerns a trace region runs inside of:
// actor ownership and GC metrics collection. Neither is part of the
// collector's own correctness surface; both are the kind of thing a host
// process wires around it.
package runtime

import (
	"sync"
	"sync/atomic"
	"time"
)

// RegionMetrics accumulates per-region GC counters. Every field is updated
// by exactly one actor at a time, matching the ownership rule a region
// itself enforces, but the struct still uses atomics so a metrics exporter
// can read it concurrently without taking the region's own lock.
type RegionMetrics struct {
	CreatedAt time.Time

	marks       uint64
	sweeps      uint64
	merges      uint64
	swapRoots   uint64
	releases    uint64
	finalizers  uint64
	destructors uint64
	objectsFreed uint64

	markNanos  int64
	sweepNanos int64

	currentMemoryUsed  int64
	previousMemoryUsed int64
}

// NewRegionMetrics starts a fresh metrics block for a region created now.
func NewRegionMetrics() *RegionMetrics {
	return &RegionMetrics{CreatedAt: time.Now()}
}

// RecordMark records one mark pass and how long it took.
func (m *RegionMetrics) RecordMark(d time.Duration) {
	atomic.AddUint64(&m.marks, 1)
	atomic.AddInt64(&m.markNanos, int64(d))
}

// RecordSweep records one sweep pass, how long it took, and how many
// objects it reclaimed.
func (m *RegionMetrics) RecordSweep(d time.Duration, freed uint64) {
	atomic.AddUint64(&m.sweeps, 1)
	atomic.AddInt64(&m.sweepNanos, int64(d))
	atomic.AddUint64(&m.objectsFreed, freed)
}

// RecordMerge records one merge of a source region into this one.
func (m *RegionMetrics) RecordMerge() {
	atomic.AddUint64(&m.merges, 1)
}

// RecordSwapRoot records one swap_root call.
func (m *RegionMetrics) RecordSwapRoot() {
	atomic.AddUint64(&m.swapRoots, 1)
}

// RecordRelease records release_internal running to completion.
func (m *RegionMetrics) RecordRelease() {
	atomic.AddUint64(&m.releases, 1)
}

// RecordFinalizer records a finaliser callback invoked during sweep.
func (m *RegionMetrics) RecordFinalizer() {
	atomic.AddUint64(&m.finalizers, 1)
}

// RecordDestructor records a destructor callback invoked during sweep.
func (m *RegionMetrics) RecordDestructor() {
	atomic.AddUint64(&m.destructors, 1)
}

// SetMemoryUsed updates the current/previous memory-used pair: the old
// current figure becomes previous, and the new figure becomes current. A
// region's Sweep calls it once at the end of each pass.
func (m *RegionMetrics) SetMemoryUsed(current uintptr) {
	prev := atomic.LoadInt64(&m.currentMemoryUsed)
	atomic.StoreInt64(&m.previousMemoryUsed, prev)
	atomic.StoreInt64(&m.currentMemoryUsed, int64(current))
}

// MetricsSnapshot captures a point-in-time, non-atomic view for reporting.
type MetricsSnapshot struct {
	CreatedAt           time.Time
	Marks               uint64
	Sweeps              uint64
	Merges              uint64
	SwapRoots           uint64
	Releases            uint64
	Finalizers          uint64
	Destructors         uint64
	ObjectsFreed        uint64
	MarkTime            time.Duration
	SweepTime           time.Duration
	CurrentMemoryUsed   uintptr
	PreviousMemoryUsed  uintptr
}

// Snapshot returns a consistent-enough point-in-time read of m.
func (m *RegionMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CreatedAt:          m.CreatedAt,
		Marks:              atomic.LoadUint64(&m.marks),
		Sweeps:             atomic.LoadUint64(&m.sweeps),
		Merges:             atomic.LoadUint64(&m.merges),
		SwapRoots:          atomic.LoadUint64(&m.swapRoots),
		Releases:           atomic.LoadUint64(&m.releases),
		Finalizers:         atomic.LoadUint64(&m.finalizers),
		Destructors:        atomic.LoadUint64(&m.destructors),
		ObjectsFreed:       atomic.LoadUint64(&m.objectsFreed),
		MarkTime:           time.Duration(atomic.LoadInt64(&m.markNanos)),
		SweepTime:          time.Duration(atomic.LoadInt64(&m.sweepNanos)),
		CurrentMemoryUsed:  uintptr(atomic.LoadInt64(&m.currentMemoryUsed)),
		PreviousMemoryUsed: uintptr(atomic.LoadInt64(&m.previousMemoryUsed)),
	}
}

// ToMap renders the snapshot as the flat name->value form MetricFunc
// (metrics_exporter.go) expects.
func (s MetricsSnapshot) ToMap() map[string]float64 {
	return map[string]float64{
		"marks":                float64(s.Marks),
		"sweeps":               float64(s.Sweeps),
		"merges":               float64(s.Merges),
		"swap_roots":           float64(s.SwapRoots),
		"releases":             float64(s.Releases),
		"finalizers":           float64(s.Finalizers),
		"destructors":          float64(s.Destructors),
		"objects_freed":        float64(s.ObjectsFreed),
		"mark_seconds_total":   s.MarkTime.Seconds(),
		"sweep_seconds_total":  s.SweepTime.Seconds(),
		"current_memory_used":  float64(s.CurrentMemoryUsed),
		"previous_memory_used": float64(s.PreviousMemoryUsed),
	}
}

// GlobalMetrics aggregates RegionMetrics across every region a process is
// tracking, keyed by a caller-chosen region id. Its Collector reports the
// sum over all registered regions plus their count.
type GlobalMetrics struct {
	mu      sync.RWMutex
	regions map[uint64]*RegionMetrics
}

// NewGlobalMetrics creates an empty registry.
func NewGlobalMetrics() *GlobalMetrics {
	return &GlobalMetrics{regions: make(map[uint64]*RegionMetrics)}
}

// Register installs m under regionID, replacing any prior entry.
func (g *GlobalMetrics) Register(regionID uint64, m *RegionMetrics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.regions[regionID] = m
}

// Unregister removes regionID's metrics, e.g. once its region is released.
func (g *GlobalMetrics) Unregister(regionID uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.regions, regionID)
}

// Collector returns a MetricFunc (see metrics_exporter.go) that sums every
// registered region's snapshot into one flat map.
func (g *GlobalMetrics) Collector() MetricFunc {
	return func() map[string]float64 {
		g.mu.RLock()
		defer g.mu.RUnlock()

		total := map[string]float64{}
		for _, m := range g.regions {
			for k, v := range m.Snapshot().ToMap() {
				total[k] += v
			}
		}

		total["region_count"] = float64(len(g.regions))

		return total
	}
}
