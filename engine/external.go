package engine

import (
	"runtime"
	"sync"
	"weak"

	"github.com/dop251/goja"
)

// BeforeCollectCallback runs on the collector's cleanup goroutine after
// the object became unreachable. It must not call back into the engine.
type BeforeCollectCallback func(state any)

// externalStore holds the external-data slot of objects without keeping
// them alive.
type externalStore struct {
	data map[weak.Pointer[goja.Object]]any
	mu   sync.Mutex
}

func newExternalStore() *externalStore {
	return &externalStore{data: make(map[weak.Pointer[goja.Object]]any)}
}

func (s *externalStore) set(o *goja.Object, v any) {
	key := weak.Make(o)
	s.mu.Lock()
	_, existed := s.data[key]
	s.data[key] = v
	s.mu.Unlock()
	if !existed {
		runtime.AddCleanup(o, s.remove, key)
	}
}

func (s *externalStore) get(o *goja.Object) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[weak.Make(o)]
	return v, ok
}

func (s *externalStore) remove(key weak.Pointer[goja.Object]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *externalStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// CreateExternalObject creates an empty object whose external-data slot
// holds data.
func (c *Context) CreateExternalObject(data any) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	o := c.vm.NewObject()
	c.external.set(o, data)
	return c.newRef(o, externalSize)
}

// HasExternalData reports whether obj has an external-data slot.
func (c *Context) HasExternalData(obj Ref) (bool, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return false, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return false, code
	}
	_, ok := c.external.get(o)
	return ok, NoError
}

// GetExternalData returns obj's external data. Objects without a slot
// report ErrorInvalidArgument.
func (c *Context) GetExternalData(obj Ref) (any, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return nil, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return nil, code
	}
	v, ok := c.external.get(o)
	if !ok {
		return nil, ErrorInvalidArgument
	}
	return v, NoError
}

// SetExternalData replaces the external data of obj.
func (c *Context) SetExternalData(obj Ref, data any) ErrorCode {
	if code := c.enterAny(); code != NoError {
		return code
	}
	o, code := c.object(obj)
	if code != NoError {
		return code
	}
	c.external.set(o, data)
	return NoError
}

// SetObjectBeforeCollectCallback arranges for cb(state) to run once obj
// has been collected. state must not reference obj.
func (c *Context) SetObjectBeforeCollectCallback(obj Ref, state any, cb BeforeCollectCallback) ErrorCode {
	if code := c.enterAny(); code != NoError {
		return code
	}
	if cb == nil {
		return ErrorNullArgument
	}
	o, code := c.object(obj)
	if code != NoError {
		return code
	}
	runtime.AddCleanup(o, func(s any) { cb(s) }, state)
	return NoError
}
