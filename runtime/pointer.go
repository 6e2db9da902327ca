package runtime

import (
	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

// refValue is implemented by every pointer value this package creates.
type refValue interface {
	jsi.PointerValue
	engineHandle() *handle
}

type stringValue struct{ h handle }

func (v *stringValue) Clone() jsi.PointerValue { return &stringValue{h: v.h.clone()} }
func (v *stringValue) Invalidate()             { v.h.invalidate() }
func (v *stringValue) engineHandle() *handle   { return &v.h }

type symbolValue struct{ h handle }

func (v *symbolValue) Clone() jsi.PointerValue { return &symbolValue{h: v.h.clone()} }
func (v *symbolValue) Invalidate()             { v.h.invalidate() }
func (v *symbolValue) engineHandle() *handle   { return &v.h }

type objectValue struct{ h handle }

func (v *objectValue) Clone() jsi.PointerValue { return &objectValue{h: v.h.clone()} }
func (v *objectValue) Invalidate()             { v.h.invalidate() }
func (v *objectValue) engineHandle() *handle   { return &v.h }

type propNameValue struct{ h handle }

func (v *propNameValue) Clone() jsi.PointerValue { return &propNameValue{h: v.h.clone()} }
func (v *propNameValue) Invalidate()             { v.h.invalidate() }
func (v *propNameValue) engineHandle() *handle   { return &v.h }

// weakRefValue holds an engine weak reference, or the target itself when
// the engine has no weak references.
type weakRefValue struct {
	h      handle
	strong bool
}

func (v *weakRefValue) Clone() jsi.PointerValue {
	return &weakRefValue{h: v.h.clone(), strong: v.strong}
}
func (v *weakRefValue) Invalidate()           { v.h.invalidate() }
func (v *weakRefValue) engineHandle() *handle { return &v.h }

// ref returns the engine ref behind p without transferring ownership.
func (r *Runtime) ref(p jsi.Pointer, what string) engine.Ref {
	pv := p.PointerValue()
	if pv == nil {
		errors.Fatal(errors.PhaseConvert, "use of released %s", what)
	}
	rv, ok := pv.(refValue)
	if !ok {
		errors.Fatal(errors.PhaseConvert, "%s was not created by this runtime (%T)", what, pv)
	}
	h := rv.engineHandle()
	if h.ctx != r.ctx {
		errors.Fatal(errors.PhaseConvert, "%s belongs to another runtime", what)
	}
	return h.get()
}

func (r *Runtime) makeString(ref engine.Ref) jsi.String {
	return jsi.String{Pointer: jsi.MakePointer(&stringValue{h: adopt(r.ctx, ref)})}
}

func (r *Runtime) makeSymbol(ref engine.Ref) jsi.Symbol {
	return jsi.Symbol{Pointer: jsi.MakePointer(&symbolValue{h: adopt(r.ctx, ref)})}
}

func (r *Runtime) makeObject(ref engine.Ref) jsi.Object {
	return jsi.Object{Pointer: jsi.MakePointer(&objectValue{h: adopt(r.ctx, ref)})}
}

// makePropNameID wraps an owned property id. An invalid id is always
// fatal.
func (r *Runtime) makePropNameID(ref engine.Ref) jsi.PropNameID {
	if ref == engine.InvalidRef {
		errors.Fatal(errors.PhaseConvert, "invalid property id reference")
	}
	return jsi.PropNameID{Pointer: jsi.MakePointer(&propNameValue{h: adopt(r.ctx, ref)})}
}

// stringOrEmpty wraps an owned string ref. A missing ref becomes a clone
// of the empty string, or a nil pointer error with StrictHandles.
func (r *Runtime) stringOrEmpty(ref engine.Ref) (jsi.String, error) {
	if ref != engine.InvalidRef {
		return r.makeString(ref), nil
	}
	if r.args.StrictHandles {
		return jsi.String{}, errors.NilPointer(errors.PhaseConvert, nil, "string")
	}
	r.logger.Debug("substituting empty string for invalid reference")
	return jsi.String{Pointer: jsi.MakePointer(&stringValue{h: r.empty.clone()})}, nil
}

// objectOrFresh wraps an owned object ref. A missing ref becomes a new
// empty object, or a nil pointer error with StrictHandles.
func (r *Runtime) objectOrFresh(ref engine.Ref) (jsi.Object, error) {
	if ref != engine.InvalidRef {
		return r.makeObject(ref), nil
	}
	if r.args.StrictHandles {
		return jsi.Object{}, errors.NilPointer(errors.PhaseConvert, nil, "object")
	}
	r.logger.Debug("substituting empty object for invalid reference")
	fresh, code := r.ctx.CreateObject()
	if code != engine.NoError {
		errors.Fatal(errors.PhaseConvert, "CreateObject returned %s while substituting", code)
	}
	return r.makeObject(fresh), nil
}
