package jsi

import "github.com/wippyai/jsi-runtime/errors"

// PointerValue is the runtime-side payload behind every pointer-kind value.
// Exactly one Pointer owns a PointerValue and only that owner may
// invalidate it.
type PointerValue interface {
	// Clone returns a new PointerValue referencing the same engine object.
	Clone() PointerValue

	// Invalidate releases the engine reference. Calling it twice is fatal.
	Invalidate()
}

type pointer struct {
	pv PointerValue
}

// Pointer is the owning wrapper around a PointerValue. Copies of a Pointer
// share ownership of one PointerValue; Release on any copy releases it.
type Pointer struct {
	p *pointer
}

// MakePointer takes ownership of pv.
func MakePointer(pv PointerValue) Pointer {
	if pv == nil {
		return Pointer{}
	}
	return Pointer{p: &pointer{pv: pv}}
}

// PointerValue returns the underlying payload, nil once released.
func (p Pointer) PointerValue() PointerValue {
	if p.p == nil {
		return nil
	}
	return p.p.pv
}

// Valid reports whether the pointer still owns a payload.
func (p Pointer) Valid() bool {
	return p.p != nil && p.p.pv != nil
}

// Release invalidates the payload. Releasing an already released pointer
// is a no-op.
func (p Pointer) Release() {
	if p.p == nil || p.p.pv == nil {
		return
	}
	pv := p.p.pv
	p.p.pv = nil
	pv.Invalidate()
}

func (p Pointer) clonePV() PointerValue {
	pv := p.PointerValue()
	if pv == nil {
		errors.Fatal(errors.PhaseConvert, "clone of released pointer value")
	}
	return pv.Clone()
}

// String is a script string.
type String struct{ Pointer }

// Clone returns a new owner of the same string.
func (s String) Clone() String { return String{MakePointer(s.clonePV())} }

// Symbol is a script symbol.
type Symbol struct{ Pointer }

// Clone returns a new owner of the same symbol.
func (s Symbol) Clone() Symbol { return Symbol{MakePointer(s.clonePV())} }

// PropNameID identifies a property.
type PropNameID struct{ Pointer }

// Clone returns a new owner of the same property id.
func (n PropNameID) Clone() PropNameID { return PropNameID{MakePointer(n.clonePV())} }

// Object is a script object. Arrays, functions and buffers are Objects.
type Object struct{ Pointer }

// Clone returns a new owner of the same object.
func (o Object) Clone() Object { return Object{MakePointer(o.clonePV())} }

// AsFunction checks that o is callable and reuses its ownership.
func (o Object) AsFunction(rt Runtime) (Function, error) {
	if !rt.IsFunction(o) {
		return Function{}, errors.InvalidInput(errors.PhaseConvert, "object is not a function")
	}
	return Function{o}, nil
}

// AsArray checks that o is an array and reuses its ownership.
func (o Object) AsArray(rt Runtime) (Array, error) {
	if !rt.IsArray(o) {
		return Array{}, errors.InvalidInput(errors.PhaseConvert, "object is not an array")
	}
	return Array{o}, nil
}

// AsArrayBuffer checks that o is an ArrayBuffer and reuses its ownership.
func (o Object) AsArrayBuffer(rt Runtime) (ArrayBuffer, error) {
	if !rt.IsArrayBuffer(o) {
		return ArrayBuffer{}, errors.InvalidInput(errors.PhaseConvert, "object is not an ArrayBuffer")
	}
	return ArrayBuffer{o}, nil
}

// Function is a callable Object.
type Function struct{ Object }

// Array is an array Object.
type Array struct{ Object }

// ArrayBuffer is an ArrayBuffer Object.
type ArrayBuffer struct{ Object }

// WeakObject references an object without keeping it alive.
type WeakObject struct{ Pointer }
