package jsi

import (
	"math"
	"strconv"

	"github.com/wippyai/jsi-runtime/errors"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindSymbol
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged script value. Values of pointer kinds own their
// payload and must be released.
type Value struct {
	ptr  Pointer
	n    float64
	kind Kind
	b    bool
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{kind: KindUndefined} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a number value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// StringValue wraps s, taking its ownership.
func StringValue(s String) Value { return Value{kind: KindString, ptr: s.Pointer} }

// SymbolValue wraps s, taking its ownership.
func SymbolValue(s Symbol) Value { return Value{kind: KindSymbol, ptr: s.Pointer} }

// ObjectValue wraps o, taking its ownership.
func ObjectValue(o Object) Value { return Value{kind: KindObject, ptr: o.Pointer} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBool() bool      { return v.kind == KindBool }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsSymbol() bool    { return v.kind == KindSymbol }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsObject() bool    { return v.kind == KindObject }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

// AsNumber returns the number payload.
func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return math.NaN(), v.mismatch(KindNumber)
	}
	return v.n, nil
}

// AsString returns the string payload. The result shares ownership with v.
func (v Value) AsString() (String, error) {
	if v.kind != KindString {
		return String{}, v.mismatch(KindString)
	}
	return String{v.ptr}, nil
}

// AsSymbol returns the symbol payload. The result shares ownership with v.
func (v Value) AsSymbol() (Symbol, error) {
	if v.kind != KindSymbol {
		return Symbol{}, v.mismatch(KindSymbol)
	}
	return Symbol{v.ptr}, nil
}

// AsObject returns the object payload. The result shares ownership with v.
func (v Value) AsObject() (Object, error) {
	if v.kind != KindObject {
		return Object{}, v.mismatch(KindObject)
	}
	return Object{v.ptr}, nil
}

// Pointer returns the owned pointer of a pointer-kind value.
func (v Value) Pointer() Pointer { return v.ptr }

// Clone returns an independent copy. Pointer kinds get a new reference.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSymbol, KindString, KindObject:
		return Value{kind: v.kind, ptr: MakePointer(v.ptr.clonePV())}
	default:
		return v
	}
}

// Release drops the payload of a pointer-kind value.
func (v Value) Release() {
	switch v.kind {
	case KindSymbol, KindString, KindObject:
		v.ptr.Release()
	}
}

func (v Value) mismatch(want Kind) error {
	return errors.New(errors.PhaseConvert, errors.KindInvalidInput).
		Detail("value is %s, not %s", v.kind, want).
		Build()
}

// ReleaseValues releases every value in vs.
func ReleaseValues(vs []Value) {
	for _, v := range vs {
		v.Release()
	}
}
