// Command traceregion-demo exercises region creation, allocation, mark/sweep,
// merge, swap_root and release against a toy object graph, printing object
// counts along the way and a metrics snapshot at the end of the gc and merge
// commands. It is a driver for manual inspection, not a test harness.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/orizon-lang/traceregion/internal/allocator"
	"github.com/orizon-lang/traceregion/internal/runtime"
	"github.com/orizon-lang/traceregion/internal/runtime/traceregion"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	switch sub {
	case "help", "-h", "--help":
		usage()
	case "gc":
		must(runGC(args))
	case "merge":
		must(runMerge(args))
	case "arena":
		must(runArena(args))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `traceregion-demo <command>

Commands:
  gc      build a region, run GC, print metrics
  merge   build two regions, merge them, swap root, release
  arena   build an arena region backed by a bump allocator, reset it
`)
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// node is a minimal traceregion.Object used only to drive this demo.
type node struct {
	hdr     traceregion.Header
	name    string
	trivial bool
	refs    []traceregion.Object
}

func newNode(name string, trivial bool) *node {
	return &node{name: name, trivial: trivial}
}

func (n *node) Hdr() *traceregion.Header { return &n.hdr }
func (n *node) Trace(s *traceregion.Stack) {
	for _, r := range n.refs {
		s.Push(r)
	}
}
func (n *node) Finalise()   { fmt.Printf("  finalise %s\n", n.name) }
func (n *node) Destructor() {}
func (n *node) FindIsoFields(_ *traceregion.Region, _ *[]traceregion.Object) {
}
func (n *node) Size() uintptr   { return 32 }
func (n *node) IsTrivial() bool { return n.trivial }
func (n *node) HasExtRef() bool { return false }

// serveMetrics starts the text exposition endpoint over global's aggregate
// collector and prints the address it bound to. The returned func shuts the
// server back down; callers defer it.
func serveMetrics(global *runtime.GlobalMetrics) (func(), error) {
	addr, shutdown, err := runtime.StartMetricsServer("127.0.0.1:0", map[string]runtime.MetricFunc{
		"traceregion": global.Collector(),
	})
	if err != nil {
		return nil, err
	}

	fmt.Printf("metrics exporter listening on http://%s/metrics\n", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}, nil
}

func runGC(args []string) error {
	fs := flag.NewFlagSet("gc", flag.ExitOnError)
	fanout := fs.Int("fanout", 5, "number of children hung off the root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	slab := allocator.NewSlab(allocator.Config{})
	root := newNode("root", false)

	region, err := traceregion.Create(root, slab)
	if err != nil {
		return err
	}

	m := runtime.NewRegionMetrics()
	region.AttachMetrics(m)

	global := runtime.NewGlobalMetrics()
	global.Register(0, m)

	stop, err := serveMetrics(global)
	if err != nil {
		return err
	}
	defer stop()

	for i := 0; i < *fanout; i++ {
		child := newNode(fmt.Sprintf("child-%d", i), i%2 == 0)
		if err := region.Alloc(child); err != nil {
			return err
		}
		if i%3 != 0 {
			root.refs = append(root.refs, child)
		}
	}

	before := len(region.Iterate(traceregion.IterAllObjects))
	fmt.Printf("before gc: %d objects, %d bytes live\n", before, region.CurrentMemoryUsed())

	if err := region.CheckIntegrity(); err != nil {
		return err
	}

	if _, err := region.GC(); err != nil {
		return err
	}

	after := len(region.Iterate(traceregion.IterAllObjects))
	fmt.Printf("after gc: %d objects, %d bytes live, %d reclaimed\n",
		after, region.CurrentMemoryUsed(), before-after)

	if err := region.CheckIntegrity(); err != nil {
		return err
	}

	global.Unregister(0)

	snap := m.Snapshot()
	fmt.Printf("metrics: marks=%d sweeps=%d objects_freed=%d current_bytes=%d\n",
		snap.Marks, snap.Sweeps, snap.ObjectsFreed, snap.CurrentMemoryUsed)

	return nil
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	slabA := allocator.NewSlab(allocator.Config{})
	slabB := allocator.NewSlab(allocator.Config{})

	rootA := newNode("A-root", false)
	a, err := traceregion.Create(rootA, slabA)
	if err != nil {
		return err
	}

	rootB := newNode("B-root", false)
	b, err := traceregion.Create(rootB, slabB)
	if err != nil {
		return err
	}

	mA := runtime.NewRegionMetrics()
	a.AttachMetrics(mA)

	mB := runtime.NewRegionMetrics()
	b.AttachMetrics(mB)

	global := runtime.NewGlobalMetrics()
	global.Register(0, mA)
	global.Register(1, mB)

	stop, err := serveMetrics(global)
	if err != nil {
		return err
	}
	defer stop()

	nb := newNode("B-child", false)
	if err := b.Alloc(nb); err != nil {
		return err
	}
	rootB.refs = []traceregion.Object{nb}

	fmt.Println("merging B into A")
	if err := traceregion.Merge(a, b); err != nil {
		return err
	}
	fmt.Printf("A now has %d objects, %d bytes live\n",
		len(a.Iterate(traceregion.IterAllObjects)), a.CurrentMemoryUsed())

	// B is absorbed into A's rings; it is no longer an independently owned
	// region, so its metrics stop being tracked as a separate series.
	global.Unregister(1)

	if err := a.CheckIntegrity(); err != nil {
		return err
	}

	fmt.Println("swapping root to B-root's former position")
	if err := traceregion.SwapRoot(a, rootB); err != nil {
		return err
	}
	fmt.Printf("new root: %s\n", rootB.name)

	if err := a.CheckIntegrity(); err != nil {
		return err
	}

	fmt.Println("releasing region")
	worklist, err := a.ReleaseInternal()
	if err != nil {
		return err
	}
	traceregion.Release(worklist)
	fmt.Println("release complete")

	global.Unregister(0)

	snap := mA.Snapshot()
	fmt.Printf("metrics: merges=%d swap_roots=%d releases=%d finalizers=%d destructors=%d\n",
		snap.Merges, snap.SwapRoots, snap.Releases, snap.Finalizers, snap.Destructors)

	return nil
}

func runArena(args []string) error {
	fs := flag.NewFlagSet("arena", flag.ExitOnError)
	capacity := fs.Uint64("capacity", 4096, "arena capacity in bytes")
	fanout := fs.Int("fanout", 8, "number of children to bump-allocate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	slab := allocator.NewArenaSlab(uintptr(*capacity))
	root := newNode("arena-root", true)

	region, err := traceregion.CreateArena(root, slab)
	if err != nil {
		return err
	}

	for i := 0; i < *fanout; i++ {
		child := newNode(fmt.Sprintf("arena-child-%d", i), true)
		if err := region.Alloc(child); err != nil {
			return err
		}
	}

	if err := region.CheckIntegrity(); err != nil {
		return err
	}

	stats := slab.Stats()
	fmt.Printf("arena: kind=%v allocs=%d bytes_live=%d peak=%d\n",
		region.Kind(), stats.AllocCount, stats.BytesLive, slab.PeakUsage())

	fmt.Println("resetting arena")
	slab.Reset()
	fmt.Printf("arena after reset: allocs=%d peak=%d\n", slab.Stats().AllocCount, slab.PeakUsage())

	return nil
}
