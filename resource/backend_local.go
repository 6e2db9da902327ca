package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed   = errors.New("resource backend closed")
	ErrOverflow = errors.New("resource handle space exhausted")
)

// LocalBackend is an in-memory, reference-counted backend.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	refs  uint32
	kind  Kind
	valid bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores a value and returns a handle with one reference.
func (b *LocalBackend) Create(kind Kind, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	e := entry{
		kind:  kind,
		value: value,
		refs:  1,
		valid: true,
	}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		b.live++
		return handle, nil
	}

	if uint64(len(b.entries)) >= uint64(^Handle(0)) {
		return 0, ErrOverflow
	}

	b.entries = append(b.entries, e)
	b.live++
	return Handle(len(b.entries)), nil
}

func (b *LocalBackend) lookup(handle Handle) *entry {
	if handle == 0 {
		return nil
	}
	idx := int(handle - 1)
	if idx >= len(b.entries) {
		return nil
	}
	e := &b.entries[idx]
	if !e.valid {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Kind returns the kind recorded for a handle.
func (b *LocalBackend) Kind(handle Handle) (Kind, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.kind, true
}

// Refs returns the current reference count of a handle.
func (b *LocalBackend) Refs(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.refs, true
}

// Retain increments the reference count for a handle.
func (b *LocalBackend) Retain(handle Handle) (uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.refs == ^uint32(0) {
		return 0, false
	}
	e.refs++
	return e.refs, true
}

// Release decrements the reference count for a handle.
func (b *LocalBackend) Release(handle Handle) (any, uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, 0, false
	}

	e.refs--
	if e.refs > 0 {
		return nil, e.refs, true
	}

	value := e.value
	*e = entry{}
	b.freeList = append(b.freeList, handle)
	b.live--
	return value, 0, true
}

// Close frees all entries.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				d.Drop()
			}
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return nil
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each iterates over all live entries.
func (b *LocalBackend) Each(fn func(Handle, Kind, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.kind, e.value) {
				break
			}
		}
	}
}
