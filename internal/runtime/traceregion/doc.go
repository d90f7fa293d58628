// Package traceregion implements a region-based tracing garbage collector
// for Orizon's actor runtime. A region is an ownership domain rooted at a
// single iso object; every mutable object belongs to exactly one region,
// and exactly one actor owns a region at a time. Mark-and-sweep within a
// region reclaims unreachable objects without coordinating with other
// actors: GC here is stop-the-region, never stop-the-world.
//
// The package does not implement object layout, the slab allocator, or
// immutable-SCC canonicalization; those are consumed through the Object
// interface and the allocator.Slab boundary. See DESIGN.md at the module
// root for how each part is grounded.
package traceregion
