package allocator

import (
	"testing"
	"unsafe"
)

func TestSizeClassOf(t *testing.T) {
	cases := []struct {
		size uintptr
		want uintptr
	}{
		{0, SizeClassTiny},
		{1, SizeClassTiny},
		{64, SizeClassTiny},
		{65, SizeClassSmall},
		{256, SizeClassMedium},
		{1024, SizeClassHuge},
		{4096, 4096},
	}

	for _, c := range cases {
		if got := SizeClassOf(c.size); got != c.want {
			t.Errorf("SizeClassOf(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestSizeClassIndexRoundTrip(t *testing.T) {
	for i := uintptr(0); i < uintptr(len(sizeClasses)); i++ {
		size := sizeClasses[i]
		idx := SizeClassIndex(size)

		if idx != i {
			t.Fatalf("SizeClassIndex(%d) = %d, want %d", size, idx, i)
		}

		if back := SizeClassToSize(idx); back != size {
			t.Errorf("SizeClassToSize(%d) = %d, want %d", idx, back, size)
		}
	}

	if idx := SizeClassIndex(SizeClassHuge + 1); idx != uintptr(len(sizeClasses)) {
		t.Errorf("SizeClassIndex(oversize) = %d, want overflow bucket %d", idx, len(sizeClasses))
	}
}

func TestPoolSlabAllocFree(t *testing.T) {
	s := NewSlab(Config{})

	ptr, err := s.Alloc(128)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if ptr == nil {
		t.Fatal("Alloc returned nil pointer")
	}

	data := (*[128]byte)(ptr)
	for i := range data {
		data[i] = byte(i)
	}
	for i := range data {
		if data[i] != byte(i) {
			t.Fatalf("data corrupted at %d", i)
		}
	}

	st := s.Stats()
	if st.AllocCount != 1 || st.BytesLive != 128 {
		t.Errorf("Stats after alloc = %+v, want AllocCount=1 BytesLive=128", st)
	}

	s.Free(ptr, 128)

	st = s.Stats()
	if st.FreeCount != 1 || st.BytesLive != 0 {
		t.Errorf("Stats after free = %+v, want FreeCount=1 BytesLive=0", st)
	}
}

func TestPoolSlabZeroSizeRejected(t *testing.T) {
	s := NewSlab(Config{})

	if _, err := s.Alloc(0); err == nil {
		t.Error("Alloc(0) should return an error")
	}
}

func TestPoolSlabOversizeFallsBackToHeap(t *testing.T) {
	s := NewSlab(Config{})

	ptr, err := s.Alloc(8192)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	data := (*[8192]byte)(ptr)
	data[8191] = 0x42
	if data[8191] != 0x42 {
		t.Error("oversize allocation not writable")
	}

	s.Free(ptr, 8192)
}

func TestPoolSlabExhaustion(t *testing.T) {
	s := NewSlab(Config{MaxLiveBytes: 256})

	if _, err := s.Alloc(128); err != nil {
		t.Fatalf("first alloc under budget failed: %v", err)
	}

	if _, err := s.Alloc(256); err != ErrExhausted {
		t.Errorf("Alloc over budget = %v, want ErrExhausted", err)
	}
}

func TestPoolSlabReuse(t *testing.T) {
	s := NewSlab(Config{})

	var ptrs []unsafe.Pointer
	for i := 0; i < 10; i++ {
		ptr, err := s.Alloc(64)
		if err != nil {
			t.Fatalf("alloc %d failed: %v", i, err)
		}
		ptrs = append(ptrs, ptr)
	}

	for _, ptr := range ptrs {
		s.Free(ptr, 64)
	}

	for i := 0; i < 10; i++ {
		if _, err := s.Alloc(64); err != nil {
			t.Fatalf("reuse alloc %d failed: %v", i, err)
		}
	}

	st := s.Stats()
	if st.AllocCount != 20 || st.FreeCount != 10 {
		t.Errorf("Stats = %+v, want AllocCount=20 FreeCount=10", st)
	}
}

func TestArenaAcquireIsStableAndIsolated(t *testing.T) {
	a := NewArena(Config{}, nil)

	s1 := a.Acquire(1)
	s2 := a.Acquire(1)
	if s1 != s2 {
		t.Error("Acquire for the same owner should return the same Slab")
	}

	s3 := a.Acquire(2)
	if s3 == s1 {
		t.Error("Acquire for different owners should return distinct slabs")
	}

	if a.Len() != 2 {
		t.Errorf("Arena.Len() = %d, want 2", a.Len())
	}

	ptr, err := s1.Alloc(64)
	if err != nil {
		t.Fatalf("alloc via arena slab failed: %v", err)
	}
	s1.Free(ptr, 64)

	if s3.Stats().AllocCount != 0 {
		t.Error("allocation on one owner's slab leaked into another owner's stats")
	}
}

func TestArenaReleaseUnknownOwner(t *testing.T) {
	a := NewArena(Config{}, nil)

	if err := a.Release(99); err == nil {
		t.Error("Release of an unacquired owner should error")
	}
}

func TestArenaAggregate(t *testing.T) {
	a := NewArena(Config{}, nil)

	for owner := uint64(1); owner <= 3; owner++ {
		s := a.Acquire(owner)
		ptr, err := s.Alloc(64)
		if err != nil {
			t.Fatalf("alloc for owner %d failed: %v", owner, err)
		}
		s.Free(ptr, 64)
	}

	total := a.Aggregate()
	if total.AllocCount != 3 || total.FreeCount != 3 {
		t.Errorf("Aggregate() = %+v, want AllocCount=3 FreeCount=3", total)
	}

	if err := a.Release(2); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if a.Len() != 2 {
		t.Errorf("Len() after release = %d, want 2", a.Len())
	}
}

func BenchmarkPoolSlabAllocFree(b *testing.B) {
	s := NewSlab(Config{})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ptr, err := s.Alloc(256)
			if err != nil {
				b.Fatal(err)
			}
			s.Free(ptr, 256)
		}
	})
}
