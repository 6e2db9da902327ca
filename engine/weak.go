package engine

import (
	"weak"

	"github.com/dop251/goja"

	"github.com/wippyai/jsi-runtime/resource"
)

type weakSlot struct {
	ptr    weak.Pointer[goja.Object]
	strong goja.Value
}

func (*weakSlot) charge() uint64 { return weakRefSize }

// CreateWeakReference creates a weak reference to v. Primitives are held
// strongly since they cannot be collected out from under the reference.
func (c *Context) CreateWeakReference(v Ref) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	val, code := c.value(v)
	if code != NoError {
		return InvalidRef, code
	}
	if code := c.rt.allocate(weakRefSize); code != NoError {
		return InvalidRef, code
	}

	slot := &weakSlot{}
	if o, ok := val.(*goja.Object); ok {
		slot.ptr = weak.Make(o)
	} else {
		slot.strong = val
	}

	h := c.refs.Insert(kindWeak, slot)
	if h == 0 {
		c.rt.free(weakRefSize)
		return InvalidRef, ErrorInvalidContext
	}
	return Ref(h), NoError
}

// GetWeakReferenceValue returns the referent of w, or undefined once it
// has been collected.
func (c *Context) GetWeakReferenceValue(w Ref) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	if w == InvalidRef {
		return InvalidRef, ErrorNullArgument
	}
	s, ok := c.refs.GetKind(resource.Handle(w), kindWeak)
	if !ok {
		return InvalidRef, ErrorInvalidArgument
	}
	slot := s.(*weakSlot)
	if slot.strong != nil {
		return c.wrap(slot.strong)
	}
	if o := slot.ptr.Value(); o != nil {
		return c.wrap(o)
	}
	return c.wrap(goja.Undefined())
}
