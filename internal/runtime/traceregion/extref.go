package traceregion

import "sync"

// ExternalReferenceTable tracks named handles a host process holds into a
// region from outside the object graph, separate from the refcounted
// targets a RememberedSet tracks. Sweep erases an entry here whenever the
// trivial object it names is reclaimed.
type ExternalReferenceTable struct {
	mu      sync.Mutex
	byName  map[string]Object
	byObj   map[Object][]string
}

// NewExternalReferenceTable creates an empty table.
func NewExternalReferenceTable() *ExternalReferenceTable {
	return &ExternalReferenceTable{
		byName: make(map[string]Object),
		byObj:  make(map[Object][]string),
	}
}

// Register names obj, replacing any previous owner of that name.
func (t *ExternalReferenceTable) Register(name string, obj Object) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byName[name]; ok {
		t.removeName(prev, name)
	}

	t.byName[name] = obj
	t.byObj[obj] = append(t.byObj[obj], name)
}

// Lookup resolves a registered name back to its object.
func (t *ExternalReferenceTable) Lookup(name string) (Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	obj, ok := t.byName[name]

	return obj, ok
}

// Erase removes every name registered against obj, called by sweep when
// obj is reclaimed.
func (t *ExternalReferenceTable) Erase(obj Object) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, name := range t.byObj[obj] {
		delete(t.byName, name)
	}

	delete(t.byObj, obj)
}

// Merge unions other's entries into t, called when the owning region
// absorbs other via Merge.
func (t *ExternalReferenceTable) Merge(other *ExternalReferenceTable) {
	other.mu.Lock()
	defer other.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	for name, obj := range other.byName {
		t.byName[name] = obj
		t.byObj[obj] = append(t.byObj[obj], name)
	}
}

func (t *ExternalReferenceTable) removeName(obj Object, name string) {
	names := t.byObj[obj]
	for i, n := range names {
		if n == name {
			t.byObj[obj] = append(names[:i], names[i+1:]...)

			break
		}
	}
}

// Len reports how many names are currently registered.
func (t *ExternalReferenceTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.byName)
}
