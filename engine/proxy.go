package engine

import (
	"github.com/dop251/goja"

	"github.com/wippyai/jsi-runtime/resource"
)

// ProxyTraps are the handler functions of a native proxy. Refs passed to a
// trap are borrowed for the duration of the call; property arrives as a
// property id. Refs returned from Get, OwnKeys and GetOwnPropertyDescriptor
// are consumed. A trap throws by setting the pending exception.
type ProxyTraps struct {
	State                    any
	Get                      func(state any, target, property Ref) Ref
	Set                      func(state any, target, property, value Ref) bool
	OwnKeys                  func(state any, target Ref) Ref
	GetOwnPropertyDescriptor func(state any, target, property Ref) (Ref, bool)
}

// CreateNativeProxy creates a proxy of target driven by traps. Nil traps
// forward to the target.
func (c *Context) CreateNativeProxy(target Ref, traps ProxyTraps) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	t, code := c.object(target)
	if code != NoError {
		return InvalidRef, code
	}

	cfg := &goja.ProxyTrapConfig{}
	if traps.Get != nil {
		cfg.Get = func(target *goja.Object, name string, _ goja.Value) goja.Value {
			return c.trapGet(traps, target, &propertyID{name: name})
		}
		cfg.GetSym = func(target *goja.Object, sym *goja.Symbol, _ goja.Value) goja.Value {
			return c.trapGet(traps, target, &propertyID{sym: sym})
		}
	}
	if traps.Set != nil {
		cfg.Set = func(target *goja.Object, name string, value, _ goja.Value) bool {
			return c.trapSet(traps, target, &propertyID{name: name}, value)
		}
		cfg.SetSym = func(target *goja.Object, sym *goja.Symbol, value, _ goja.Value) bool {
			return c.trapSet(traps, target, &propertyID{sym: sym}, value)
		}
	}
	if traps.OwnKeys != nil {
		cfg.OwnKeys = func(target *goja.Object) *goja.Object {
			var out goja.Value
			c.trap(func() {
				tr := c.borrow(target)
				defer c.refs.Release(tr)
				out = c.consume(traps.OwnKeys(traps.State, Ref(tr)))
			})
			if o, ok := out.(*goja.Object); ok {
				return o
			}
			return c.vm.NewArray()
		}
	}
	if traps.GetOwnPropertyDescriptor != nil {
		cfg.GetOwnPropertyDescriptor = func(target *goja.Object, name string) goja.PropertyDescriptor {
			var desc goja.PropertyDescriptor
			c.trap(func() {
				tr := c.borrow(target)
				id := c.refs.Insert(kindPropertyID, &propertyID{name: name})
				defer c.refs.Release(tr)
				defer c.refs.Release(id)
				v, found := traps.GetOwnPropertyDescriptor(traps.State, Ref(tr), Ref(id))
				val := c.consume(v)
				if !found {
					return
				}
				desc = goja.PropertyDescriptor{
					Value:        val,
					Writable:     goja.FLAG_TRUE,
					Enumerable:   goja.FLAG_TRUE,
					Configurable: goja.FLAG_TRUE,
				}
			})
			return desc
		}
	}

	p := c.vm.NewProxy(t, cfg)
	return c.newRef(c.vm.ToValue(p), objectSize)
}

func (c *Context) trapGet(traps ProxyTraps, target *goja.Object, id *propertyID) goja.Value {
	var out goja.Value
	c.trap(func() {
		tr := c.borrow(target)
		pr := c.refs.Insert(kindPropertyID, id)
		defer c.refs.Release(tr)
		defer c.refs.Release(pr)
		out = c.consume(traps.Get(traps.State, Ref(tr), Ref(pr)))
	})
	return out
}

func (c *Context) trapSet(traps ProxyTraps, target *goja.Object, id *propertyID, value goja.Value) bool {
	var ok bool
	c.trap(func() {
		tr := c.borrow(target)
		pr := c.refs.Insert(kindPropertyID, id)
		vr := c.borrow(value)
		defer c.refs.Release(tr)
		defer c.refs.Release(pr)
		defer c.refs.Release(vr)
		ok = traps.Set(traps.State, Ref(tr), Ref(pr), Ref(vr))
	})
	return ok
}

// trap runs fn inside the VM and rethrows an exception left pending by
// the host.
func (c *Context) trap(fn func()) {
	fn()
	if ex := c.exception; ex != nil {
		c.exception = nil
		panic(ex)
	}
}

func (c *Context) borrow(v goja.Value) resource.Handle {
	return c.refs.Insert(kindValue, &valueSlot{v: v})
}

// consume turns a returned ref into its value and releases it.
func (c *Context) consume(ref Ref) goja.Value {
	if ref == InvalidRef {
		return goja.Undefined()
	}
	v, code := c.value(ref)
	c.refs.Release(resource.Handle(ref))
	if code != NoError {
		return goja.Undefined()
	}
	return v
}
