package engine

import (
	stderrors "errors"
	"sync/atomic"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/resource"
)

// Ref is an opaque, reference-counted handle to an engine value, property
// id or weak reference. InvalidRef is never issued.
type Ref uint32

const InvalidRef Ref = 0

const (
	kindValue resource.Kind = iota + 1
	kindPropertyID
	kindWeak
)

type charged interface {
	charge() uint64
}

type valueSlot struct {
	v    goja.Value
	size uint64
}

func (s *valueSlot) charge() uint64 { return s.size }

// Context is a script execution context. All methods must be called on
// the goroutine that first made it current.
type Context struct {
	rt        *Runtime
	vm        *goja.Runtime
	refs      *resource.Table
	exception goja.Value
	callbacks *callbackStore
	external  *externalStore
	helpers   helpers
	promise   promiseHooks
	programs  programCache
	owner     owner
	released  atomic.Bool
}

func newContext(r *Runtime) *Context {
	c := &Context{
		rt:        r,
		vm:        goja.New(),
		refs:      resource.NewTable(),
		callbacks: newCallbackStore(),
		external:  newExternalStore(),
		programs:  make(programCache),
	}

	c.refs.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		if e.Type != resource.EventReleased {
			return
		}
		if s, ok := e.Value.(charged); ok {
			r.free(s.charge())
		}
	}))

	if r.attrs.Has(AttributeDisableEval) {
		c.vm.GlobalObject().Delete("eval")
	}

	return c
}

// Runtime returns the owning runtime.
func (c *Context) Runtime() *Runtime {
	return c.rt
}

// Owner returns the goroutine id the context is bound to, 0 if unbound.
func (c *Context) Owner() int64 {
	return c.owner.get()
}

// Close releases the context. It must not be current.
func (c *Context) Close() ErrorCode {
	if c.released.Load() {
		return ErrorInvalidContext
	}
	if c.rt.isCurrent(c) {
		return ErrorContextInUse
	}
	if id := c.owner.get(); id != 0 && !c.owner.held() {
		return ErrorWrongThread
	}
	c.close()
	c.rt.forget(c)
	return NoError
}

func (c *Context) close() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	live := c.refs.Len()
	c.refs.Close()
	c.exception = nil
	c.programs = nil
	c.callbacks.clear()
	if live > 0 {
		Logger().Debug("context released with live refs", zap.Int("refs", live))
	}
}

// enter validates that c may be used by the caller.
func (c *Context) enter() ErrorCode {
	if code := c.enterAny(); code != NoError {
		return code
	}
	if c.exception != nil {
		return ErrorInExceptionState
	}
	return NoError
}

// enterAny is enter without the pending exception check.
func (c *Context) enterAny() ErrorCode {
	if c.released.Load() {
		return ErrorInvalidContext
	}
	if !c.rt.isCurrent(c) {
		return ErrorNoCurrentContext
	}
	if !c.owner.held() {
		return ErrorWrongThread
	}
	return NoError
}

// AddRef adds a reference to ref.
func (c *Context) AddRef(ref Ref) (uint32, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return 0, code
	}
	n, ok := c.refs.AddRef(resource.Handle(ref))
	if !ok {
		return 0, ErrorInvalidArgument
	}
	return n, NoError
}

// Release drops a reference to ref.
func (c *Context) Release(ref Ref) (uint32, ErrorCode) {
	if c.released.Load() {
		return 0, NoError
	}
	if code := c.enterAny(); code != NoError {
		return 0, code
	}
	n, ok := c.refs.Release(resource.Handle(ref))
	if !ok {
		return 0, ErrorInvalidArgument
	}
	return n, NoError
}

// RefCount returns the number of references to ref.
func (c *Context) RefCount(ref Ref) uint32 {
	return c.refs.RefCount(resource.Handle(ref))
}

// LiveRefs returns the number of live refs in the context.
func (c *Context) LiveRefs() int {
	return c.refs.Len()
}

func (c *Context) newRef(v goja.Value, size uint64) (Ref, ErrorCode) {
	if v == nil {
		v = goja.Undefined()
	}
	if code := c.rt.allocate(size); code != NoError {
		return InvalidRef, code
	}
	h := c.refs.Insert(kindValue, &valueSlot{v: v, size: size})
	if h == 0 {
		c.rt.free(size)
		return InvalidRef, ErrorInvalidContext
	}
	return Ref(h), NoError
}

// wrap is newRef for values not created by the API.
func (c *Context) wrap(v goja.Value) (Ref, ErrorCode) {
	return c.newRef(v, 0)
}

func (c *Context) value(ref Ref) (goja.Value, ErrorCode) {
	if ref == InvalidRef {
		return nil, ErrorNullArgument
	}
	s, ok := c.refs.GetKind(resource.Handle(ref), kindValue)
	if !ok {
		return nil, ErrorInvalidArgument
	}
	return s.(*valueSlot).v, NoError
}

func (c *Context) object(ref Ref) (*goja.Object, ErrorCode) {
	v, code := c.value(ref)
	if code != NoError {
		return nil, code
	}
	o, ok := v.(*goja.Object)
	if !ok {
		return nil, ErrorArgumentNotObject
	}
	return o, NoError
}

func (c *Context) values(refs []Ref) ([]goja.Value, ErrorCode) {
	out := make([]goja.Value, len(refs))
	for i, ref := range refs {
		v, code := c.value(ref)
		if code != NoError {
			return nil, code
		}
		out[i] = v
	}
	return out, NoError
}

// guard runs fn, converting script throws into a pending exception.
func (c *Context) guard(fn func()) (code ErrorCode) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		switch e := x.(type) {
		case *goja.Exception:
			c.exception = e.Value()
			code = ErrorScriptException
		case *goja.InterruptedError:
			c.exception = c.newError("Error", e.Error())
			code = ErrorScriptTerminated
		case goja.Value:
			c.exception = e
			code = ErrorScriptException
		default:
			panic(x)
		}
	}()
	fn()
	return NoError
}

// fail records err as the pending exception.
func (c *Context) fail(err error) ErrorCode {
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		c.exception = ex.Value()
		if c.exception == nil {
			c.exception = c.newError("Error", ex.Error())
		}
		return ErrorScriptException
	}

	var syn *goja.CompilerSyntaxError
	if stderrors.As(err, &syn) {
		c.exception = c.newError("SyntaxError", syn.Error())
		return ErrorScriptCompile
	}

	var intr *goja.InterruptedError
	if stderrors.As(err, &intr) {
		c.exception = c.newError("Error", intr.Error())
		return ErrorScriptTerminated
	}

	c.exception = c.newError("Error", err.Error())
	return ErrorScriptException
}

// newError constructs a script error of the named built-in class.
func (c *Context) newError(class, msg string) goja.Value {
	ctor := c.vm.Get(class)
	if ctor == nil {
		ctor = c.vm.Get("Error")
	}
	obj, err := c.vm.New(ctor, c.vm.ToValue(msg))
	if err != nil {
		return c.vm.ToValue(msg)
	}
	return obj
}
