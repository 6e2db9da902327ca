package resource

import (
	"sync"
)

// Table is a reference-counted handle table with observer support.
// Entries start with one reference; AddRef and Release adjust the count
// and the entry is freed when it drops to zero.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value with one reference and returns its handle.
// It returns 0 when the table is closed.
func (t *Table) Insert(kind Kind, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(kind, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Kind:   kind,
		Refs:   1,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetKind retrieves a value only if it was inserted with the given kind.
func (t *Table) GetKind(handle Handle, kind Kind) (any, bool) {
	actual, ok := t.backend.Kind(handle)
	if !ok || actual != kind {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Kind returns the kind of a live handle.
func (t *Table) Kind(handle Handle) (Kind, bool) {
	return t.backend.Kind(handle)
}

// AddRef adds a reference to a live handle.
func (t *Table) AddRef(handle Handle) (uint32, bool) {
	refs, ok := t.backend.Retain(handle)
	if !ok {
		return 0, false
	}
	kind, _ := t.backend.Kind(handle)
	t.notify(Event{
		Type:   EventRetained,
		Handle: handle,
		Kind:   kind,
		Refs:   refs,
	})
	return refs, true
}

// Release drops a reference. On the last reference the value's Drop method
// runs (if any) and an EventReleased is sent.
func (t *Table) Release(handle Handle) (uint32, bool) {
	kind, _ := t.backend.Kind(handle)
	value, refs, ok := t.backend.Release(handle)
	if !ok {
		return 0, false
	}
	if refs > 0 {
		return refs, true
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventReleased,
		Handle: handle,
		Kind:   kind,
		Value:  value,
	})

	return 0, true
}

// RefCount returns the reference count of a handle, 0 if it is not live.
func (t *Table) RefCount(handle Handle) uint32 {
	refs, _ := t.backend.Refs(handle)
	return refs
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Each iterates over all live entries.
func (t *Table) Each(fn func(Handle, Kind, any) bool) {
	t.backend.Each(fn)
}

// Close frees all entries and stops accepting inserts.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
