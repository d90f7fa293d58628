package traceregion

import "testing"

func TestRememberedSetInsertAndRefCount(t *testing.T) {
	s := NewRememberedSet()
	target := newObj("target", true, 4)

	s.Insert(target, 0)
	s.Insert(target, 0)

	if got := s.RefCount(target); got != 2 {
		t.Errorf("RefCount = %d, want 2", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestRememberedSetInsertTransfersRefcount(t *testing.T) {
	s := NewRememberedSet()
	target := newObj("target", true, 4)

	s.Insert(target, 5)

	if got := s.RefCount(target); got != 5 {
		t.Errorf("RefCount = %d, want 5", got)
	}
}

// Invariant 8: entries surviving a GC equal entries reached via
// SCC_PTR/RC/COWN during mark.
func TestRememberedSetSweepSetDropsUntouchedEntries(t *testing.T) {
	s := NewRememberedSet()
	touched := newObj("touched", true, 4)
	stale := newObj("stale", true, 4)

	s.Insert(touched, 1)
	s.Insert(stale, 1)

	var marked uint64
	s.Mark(touched, &marked)

	s.SweepSet(marked)

	if s.Len() != 1 {
		t.Fatalf("Len after sweep = %d, want 1", s.Len())
	}
	if s.RefCount(touched) == 0 {
		t.Error("touched entry should survive sweep")
	}
	if s.RefCount(stale) != 0 {
		t.Error("stale entry should have been dropped")
	}
}

// S4: repeated GC with no mutation keeps exactly one entry per canonical
// target and leaves its refcount unchanged.
func TestRememberedSetStableAcrossRepeatedGC(t *testing.T) {
	root := newObj("R", false, 4)
	r, _ := Create(root, newTestSlab())

	imm := newObj("I", true, 4)
	sccRef := newObj("sccref", true, 4)
	sccRef.hdr.SetTag(ClassSCCPtr)
	sccRef.immutable = imm

	root.refs = []Object{sccRef}

	if _, err := r.GC(); err != nil {
		t.Fatalf("first gc failed: %v", err)
	}

	firstRefcount := r.Remembered().RefCount(imm)

	if _, err := r.GC(); err != nil {
		t.Fatalf("second gc failed: %v", err)
	}

	if r.Remembered().Len() != 1 {
		t.Errorf("Len = %d, want 1 across repeated GCs", r.Remembered().Len())
	}
	if got := r.Remembered().RefCount(imm); got != firstRefcount {
		t.Errorf("RefCount changed across GCs with no mutation: %d -> %d", firstRefcount, got)
	}
}

func TestRememberedSetMergeFromSumsRefcounts(t *testing.T) {
	a := NewRememberedSet()
	b := NewRememberedSet()

	shared := newObj("shared", true, 4)
	onlyB := newObj("onlyB", true, 4)

	a.Insert(shared, 2)
	b.Insert(shared, 3)
	b.Insert(onlyB, 1)

	a.MergeFrom(b)

	if got := a.RefCount(shared); got != 5 {
		t.Errorf("RefCount(shared) = %d, want 5", got)
	}
	if got := a.RefCount(onlyB); got != 1 {
		t.Errorf("RefCount(onlyB) = %d, want 1", got)
	}
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}
}

func TestExternalReferenceTableRegisterLookupErase(t *testing.T) {
	tbl := NewExternalReferenceTable()
	obj := newObj("obj", true, 4)

	tbl.Register("handle-1", obj)

	got, ok := tbl.Lookup("handle-1")
	if !ok || got != obj {
		t.Fatalf("Lookup = %v, %v, want obj, true", got, ok)
	}

	tbl.Erase(obj)

	if _, ok := tbl.Lookup("handle-1"); ok {
		t.Error("handle should be gone after Erase")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len = %d, want 0", tbl.Len())
	}
}

func TestExternalReferenceTableMerge(t *testing.T) {
	a := NewExternalReferenceTable()
	b := NewExternalReferenceTable()

	oa := newObj("oa", true, 4)
	ob := newObj("ob", true, 4)

	a.Register("a", oa)
	b.Register("b", ob)

	a.Merge(b)

	if _, ok := a.Lookup("a"); !ok {
		t.Error("original entry should survive merge")
	}
	if _, ok := a.Lookup("b"); !ok {
		t.Error("merged entry should be present")
	}
}

func TestSweepErasesExternalRefOnTrivialReclaim(t *testing.T) {
	root := newObj("R", true, 4)
	r, _ := Create(root, newTestSlab())

	c := newObj("C", true, 4)
	c.hasExtRef = true

	if err := r.Alloc(c); err != nil {
		t.Fatalf("alloc: %v", err)
	}

	r.ExternalRefs().Register("handle", c)
	// root does not reference c: it is unreachable this pass.

	if _, err := r.GC(); err != nil {
		t.Fatalf("gc failed: %v", err)
	}

	if _, ok := r.ExternalRefs().Lookup("handle"); ok {
		t.Error("external ref should have been erased when c was reclaimed")
	}
}
