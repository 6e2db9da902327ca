package runtime

import (
	"github.com/wippyai/jsi-runtime/engine"
)

// proxyFactory wraps host object targets in proxies serving the host
// traps.
type proxyFactory interface {
	create(target engine.Ref) (engine.Ref, error)
	release()
}

// nativeProxyFactory uses the engine's proxy traps directly.
type nativeProxyFactory struct {
	r *Runtime
}

func (f *nativeProxyFactory) create(target engine.Ref) (engine.Ref, error) {
	ref, code := f.r.ctx.CreateNativeProxy(target, engine.ProxyTraps{
		State:                    f.r,
		Get:                      nativeGet,
		Set:                      nativeSet,
		OwnKeys:                  nativeOwnKeys,
		GetOwnPropertyDescriptor: nativeDescriptor,
	})
	if code != engine.NoError {
		return engine.InvalidRef, f.r.check("CreateNativeProxy", code)
	}
	return ref, nil
}

func (f *nativeProxyFactory) release() {}

func nativeGet(state any, target, property engine.Ref) engine.Ref {
	return state.(*Runtime).hostGet(target, property)
}

func nativeSet(state any, target, property, value engine.Ref) bool {
	return state.(*Runtime).hostSet(target, property, value)
}

func nativeOwnKeys(state any, target engine.Ref) engine.Ref {
	return state.(*Runtime).hostOwnKeys(target)
}

func nativeDescriptor(state any, target, property engine.Ref) (engine.Ref, bool) {
	return state.(*Runtime).hostDescriptor(target, property)
}

const (
	proxyConstructorSource = `function $$ProxyConstructor$$(target, handler) { return new Proxy(target, handler) }`
	proxyBootstrapURL      = "ProxyConstructor.bootstrap.js"
)

// scriptProxyFactory builds proxies with a script Proxy constructor and
// one shared handler whose traps are native functions.
type scriptProxyFactory struct {
	r       *Runtime
	ctor    handle
	handler handle
	ready   bool
}

type scriptTrap struct {
	fn     engine.NativeFunction
	name   string
	length int
}

var scriptTraps = []scriptTrap{
	{name: "get", length: 2, fn: scriptGet},
	{name: "set", length: 3, fn: scriptSet},
	{name: "ownKeys", length: 1, fn: scriptOwnKeys},
	{name: "getOwnPropertyDescriptor", length: 2, fn: scriptDescriptor},
}

func (f *scriptProxyFactory) init() error {
	if f.ready {
		return nil
	}
	r := f.r

	ctor, code := r.ctx.Run("("+proxyConstructorSource+")", proxyBootstrapURL)
	if code != engine.NoError {
		return r.check("Run", code)
	}

	handler, code := r.ctx.CreateObject()
	if code != engine.NoError {
		r.release(ctor)
		return r.check("CreateObject", code)
	}
	for _, t := range scriptTraps {
		if err := f.defineTrap(handler, t); err != nil {
			r.release(ctor)
			r.release(handler)
			return err
		}
	}

	f.ctor = adopt(r.ctx, ctor)
	f.handler = adopt(r.ctx, handler)
	f.ready = true
	return nil
}

func (f *scriptProxyFactory) defineTrap(handler engine.Ref, t scriptTrap) error {
	r := f.r
	fn, code := r.ctx.CreateNamedFunction(t.name, t.length, t.fn, r)
	if code != engine.NoError {
		return r.check("CreateNamedFunction", code)
	}
	defer r.release(fn)
	id, code := r.ctx.CreatePropertyID(t.name)
	if code != engine.NoError {
		return r.check("CreatePropertyID", code)
	}
	defer r.release(id)
	return r.check("SetProperty", r.ctx.SetProperty(handler, id, fn, true))
}

func (f *scriptProxyFactory) create(target engine.Ref) (engine.Ref, error) {
	if err := f.init(); err != nil {
		return engine.InvalidRef, err
	}
	r := f.r
	undef, code := r.ctx.GetUndefinedValue()
	if code != engine.NoError {
		return engine.InvalidRef, r.check("GetUndefinedValue", code)
	}
	defer r.release(undef)

	ref, code := r.ctx.CallFunction(f.ctor.get(), []engine.Ref{undef, target, f.handler.get()})
	if code != engine.NoError {
		return engine.InvalidRef, r.check("CallFunction", code)
	}
	return ref, nil
}

func (f *scriptProxyFactory) release() {
	if !f.ready {
		return
	}
	f.ready = false
	f.ctor.invalidate()
	f.handler.invalidate()
}

// trapKey converts a script property key to an owned property id.
func (r *Runtime) trapKey(key engine.Ref) (engine.Ref, error) {
	typ, code := r.ctx.GetValueType(key)
	if code != engine.NoError {
		return engine.InvalidRef, r.check("GetValueType", code)
	}
	if typ == engine.ValueSymbol {
		id, code := r.ctx.CreatePropertyIDFromSymbol(key)
		if code != engine.NoError {
			return engine.InvalidRef, r.check("CreatePropertyIDFromSymbol", code)
		}
		return id, nil
	}

	name, code := r.ctx.StringToUTF8(key)
	if code != engine.NoError {
		return engine.InvalidRef, r.check("StringToUTF8", code)
	}
	id, code := r.ctx.CreatePropertyID(name)
	if code != engine.NoError {
		return engine.InvalidRef, r.check("CreatePropertyID", code)
	}
	return id, nil
}

// trapArgs checks the handler call shape: args[0] is the handler, then
// the proxy trap arguments.
func (r *Runtime) trapArgs(trap string, args []engine.Ref, want int) bool {
	if len(args) >= want+1 {
		return true
	}
	r.throwError(hostException("The " + trap + "() Proxy handler requires " + argCount(want) + "."))
	return false
}

func argCount(n int) string {
	switch n {
	case 1:
		return "one argument"
	case 2:
		return "two arguments"
	case 3:
		return "three arguments"
	default:
		return "four arguments"
	}
}

func scriptGet(state any, args []engine.Ref) engine.Ref {
	r := state.(*Runtime)
	if !r.trapArgs("get", args, 2) {
		return engine.InvalidRef
	}
	id, err := r.trapKey(args[2])
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	defer r.release(id)
	return r.hostGet(args[1], id)
}

func scriptSet(state any, args []engine.Ref) engine.Ref {
	r := state.(*Runtime)
	if !r.trapArgs("set", args, 3) {
		return engine.InvalidRef
	}
	id, err := r.trapKey(args[2])
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	defer r.release(id)
	if !r.hostSet(args[1], id, args[3]) {
		return engine.InvalidRef
	}
	ok, _ := r.ctx.BoolToBoolean(true)
	return ok
}

func scriptOwnKeys(state any, args []engine.Ref) engine.Ref {
	r := state.(*Runtime)
	if !r.trapArgs("ownKeys", args, 1) {
		return engine.InvalidRef
	}
	return r.hostOwnKeys(args[1])
}

func scriptDescriptor(state any, args []engine.Ref) engine.Ref {
	r := state.(*Runtime)
	if !r.trapArgs("getOwnPropertyDescriptor", args, 2) {
		return engine.InvalidRef
	}
	id, err := r.trapKey(args[2])
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	defer r.release(id)

	v, found := r.hostDescriptor(args[1], id)
	if !found {
		r.release(v)
		return engine.InvalidRef
	}
	defer r.release(v)

	desc, err := r.descriptor(v)
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	return desc
}

// descriptor builds {value, writable, enumerable, configurable} around a
// borrowed value.
func (r *Runtime) descriptor(value engine.Ref) (engine.Ref, error) {
	obj, code := r.ctx.CreateObject()
	if code != engine.NoError {
		return engine.InvalidRef, r.check("CreateObject", code)
	}
	yes, code := r.ctx.BoolToBoolean(true)
	if code != engine.NoError {
		r.release(obj)
		return engine.InvalidRef, r.check("BoolToBoolean", code)
	}
	defer r.release(yes)

	fields := []struct {
		name string
		v    engine.Ref
	}{
		{"value", value},
		{"writable", yes},
		{"enumerable", yes},
		{"configurable", yes},
	}
	for _, f := range fields {
		v := f.v
		if v == engine.InvalidRef {
			v, _ = r.ctx.GetUndefinedValue()
			defer r.release(v)
		}
		id, code := r.ctx.CreatePropertyID(f.name)
		if code == engine.NoError {
			code = r.ctx.SetProperty(obj, id, v, true)
			r.release(id)
		}
		if code != engine.NoError {
			r.release(obj)
			return engine.InvalidRef, r.check("SetProperty", code)
		}
	}
	return obj, nil
}
