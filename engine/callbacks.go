package engine

import (
	"runtime"
	"sync"

	"github.com/dop251/goja"

	"github.com/wippyai/jsi-runtime/resource"
)

// NativeFunction is the body of a function created with CreateNamedFunction.
// args[0] is the receiver and the rest are the call arguments; all of them
// are borrowed for the duration of the call. The returned ref is consumed,
// InvalidRef meaning undefined. A callback that wants to throw sets the
// pending exception with SetException and returns InvalidRef.
type NativeFunction func(state any, args []Ref) Ref

type callbackEntry struct {
	fn    NativeFunction
	state any
}

// callbackStore maps int32 tokens to native callbacks. It is touched from
// collector cleanups, so all access is locked.
type callbackStore struct {
	entries map[int32]callbackEntry
	next    int32
	mu      sync.Mutex
}

func newCallbackStore() *callbackStore {
	return &callbackStore{entries: make(map[int32]callbackEntry)}
}

func (s *callbackStore) put(e callbackEntry) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		s.next++
		if s.next <= 0 {
			s.next = 1
		}
		if _, used := s.entries[s.next]; !used {
			break
		}
	}
	s.entries[s.next] = e
	return s.next
}

func (s *callbackStore) get(token int32) (callbackEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	return e, ok
}

func (s *callbackStore) drop(token int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
}

func (s *callbackStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

func (s *callbackStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Callbacks returns the number of native callbacks still registered.
func (c *Context) Callbacks() int {
	return c.callbacks.len()
}

// CreateNamedFunction creates a script function named name whose calls are
// forwarded to fn with state. The registration is dropped once the
// function object is collected.
func (c *Context) CreateNamedFunction(name string, length int, fn NativeFunction, state any) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	if fn == nil {
		return InvalidRef, ErrorNullArgument
	}
	if code := c.rt.allocate(functionSize); code != NoError {
		return InvalidRef, code
	}

	token := c.callbacks.put(callbackEntry{fn: fn, state: state})
	f := c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return c.invoke(token, call.This, call.Arguments)
	}).(*goja.Object)

	_ = f.DefineDataProperty("name", c.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	_ = f.DefineDataProperty("length", c.vm.ToValue(length), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)

	runtime.AddCleanup(f, c.callbacks.drop, token)

	h := c.refs.Insert(kindValue, &valueSlot{v: f, size: functionSize})
	if h == 0 {
		c.rt.free(functionSize)
		return InvalidRef, ErrorInvalidContext
	}
	return Ref(h), NoError
}

// invoke runs the callback registered under token. It executes inside the
// VM, so failures are thrown by panicking with a script value.
func (c *Context) invoke(token int32, this goja.Value, args []goja.Value) goja.Value {
	e, ok := c.callbacks.get(token)
	if !ok {
		panic(c.newError("Error", "native function is no longer registered"))
	}

	refs := make([]Ref, 0, len(args)+1)
	defer func() {
		for _, r := range refs {
			c.refs.Release(resource.Handle(r))
		}
	}()
	for _, v := range append([]goja.Value{this}, args...) {
		r, code := c.wrap(v)
		if code != NoError {
			panic(c.newError("Error", "cannot pass argument to native function: "+code.String()))
		}
		refs = append(refs, r)
	}

	debugf("invoke token=%d argc=%d", token, len(args))
	ret := e.fn(e.state, refs)

	if ex := c.exception; ex != nil {
		c.exception = nil
		if ret != InvalidRef {
			c.refs.Release(resource.Handle(ret))
		}
		panic(ex)
	}
	if ret == InvalidRef {
		return goja.Undefined()
	}
	v, code := c.value(ret)
	c.refs.Release(resource.Handle(ret))
	if code != NoError {
		panic(c.newError("Error", "native function returned an invalid value"))
	}
	return v
}

// CallFunction calls fn. args[0] is the receiver.
func (c *Context) CallFunction(fn Ref, args []Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	f, code := c.object(fn)
	if code != NoError {
		return InvalidRef, code
	}
	call, ok := goja.AssertFunction(f)
	if !ok {
		return InvalidRef, ErrorInvalidArgument
	}
	vals, code := c.values(args)
	if code != NoError {
		return InvalidRef, code
	}

	this := goja.Undefined()
	if len(vals) > 0 {
		this, vals = vals[0], vals[1:]
	}

	var res goja.Value
	var err error
	if code := c.guard(func() { res, err = call(this, vals...) }); code != NoError {
		return InvalidRef, code
	}
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.wrap(res)
}

// ConstructObject evaluates new fn(...). args[0] is ignored, as the
// receiver is created by the constructor.
func (c *Context) ConstructObject(fn Ref, args []Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	f, code := c.object(fn)
	if code != NoError {
		return InvalidRef, code
	}
	vals, code := c.values(args)
	if code != NoError {
		return InvalidRef, code
	}
	if len(vals) > 0 {
		vals = vals[1:]
	}

	var res *goja.Object
	var err error
	if code := c.guard(func() { res, err = c.vm.New(f, vals...) }); code != NoError {
		return InvalidRef, code
	}
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.newRef(res, objectSize)
}
