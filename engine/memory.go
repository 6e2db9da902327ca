package engine

import (
	"runtime"
	"sync"
)

// AllocationEvent describes a memory accounting event.
type AllocationEvent uint8

const (
	AllocationRequest AllocationEvent = iota
	AllocationFree
	AllocationFailure
)

func (e AllocationEvent) String() string {
	switch e {
	case AllocationRequest:
		return "allocate"
	case AllocationFree:
		return "free"
	case AllocationFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// AllocationCallback is told about engine allocations. Returning false from
// an AllocationRequest denies it.
type AllocationCallback func(state any, event AllocationEvent, size uint64) bool

// Estimated sizes charged for API-created values.
const (
	objectSize     = 64
	arraySlotSize  = 16
	functionSize   = 128
	stringOverhead = 16
	externalSize   = 96
	weakRefSize    = 32
	propertyIDSize = 24
	symbolSize     = 32
	bufferOverhead = 48
)

type memory struct {
	callback AllocationCallback
	state    any
	usage    uint64
	limit    uint64
	mu       sync.Mutex
}

// SetMemoryAllocationCallback installs cb, or removes it when cb is nil.
func (r *Runtime) SetMemoryAllocationCallback(state any, cb AllocationCallback) ErrorCode {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	r.mem.callback = cb
	r.mem.state = state
	if cb == nil {
		r.mem.state = nil
	}
	return NoError
}

// SetMemoryLimit caps tracked usage. 0 removes the limit.
func (r *Runtime) SetMemoryLimit(limit uint64) ErrorCode {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	r.mem.limit = limit
	return NoError
}

// MemoryLimit returns the configured limit, 0 when unlimited.
func (r *Runtime) MemoryLimit() uint64 {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	return r.mem.limit
}

// MemoryUsage returns the tracked usage.
func (r *Runtime) MemoryUsage() uint64 {
	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	return r.mem.usage
}

func (r *Runtime) allocate(size uint64) ErrorCode {
	if size == 0 {
		return NoError
	}

	m := &r.mem
	m.mu.Lock()
	cb, state := m.callback, m.state
	over := m.limit > 0 && m.usage+size > m.limit
	if !over {
		m.usage += size
	}
	m.mu.Unlock()

	if over {
		if cb != nil {
			cb(state, AllocationFailure, size)
		}
		return ErrorOutOfMemory
	}

	if cb != nil && !cb(state, AllocationRequest, size) {
		m.mu.Lock()
		m.usage -= size
		m.mu.Unlock()
		cb(state, AllocationFailure, size)
		return ErrorOutOfMemory
	}
	return NoError
}

func (r *Runtime) free(size uint64) {
	if size == 0 {
		return
	}

	m := &r.mem
	m.mu.Lock()
	if size > m.usage {
		size = m.usage
	}
	m.usage -= size
	cb, state := m.callback, m.state
	m.mu.Unlock()

	if cb != nil {
		cb(state, AllocationFree, size)
	}
}

func collect() {
	runtime.GC()
}
