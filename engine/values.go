package engine

import (
	"math"
	"reflect"

	"github.com/dop251/goja"
)

// ValueType is the runtime type tag of an engine value.
type ValueType uint8

const (
	ValueUndefined ValueType = iota
	ValueNull
	ValueNumber
	ValueString
	ValueBoolean
	ValueObject
	ValueFunction
	ValueError
	ValueArray
	ValueSymbol
	ValueArrayBuffer
	ValueTypedArray
	ValueDataView
)

var valueTypeNames = [...]string{
	ValueUndefined:   "undefined",
	ValueNull:        "null",
	ValueNumber:      "number",
	ValueString:      "string",
	ValueBoolean:     "boolean",
	ValueObject:      "object",
	ValueFunction:    "function",
	ValueError:       "error",
	ValueArray:       "array",
	ValueSymbol:      "symbol",
	ValueArrayBuffer: "arraybuffer",
	ValueTypedArray:  "typedarray",
	ValueDataView:    "dataview",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// IsObject reports whether t is any object type.
func (t ValueType) IsObject() bool {
	switch t {
	case ValueObject, ValueFunction, ValueError, ValueArray, ValueArrayBuffer, ValueTypedArray, ValueDataView:
		return true
	}
	return false
}

var (
	typeString = reflect.TypeOf("")
	typeBool   = reflect.TypeOf(false)
	typeBuffer = reflect.TypeOf(goja.ArrayBuffer{})
)

func typeOf(v goja.Value) ValueType {
	switch {
	case v == nil, goja.IsUndefined(v):
		return ValueUndefined
	case goja.IsNull(v):
		return ValueNull
	}

	switch o := v.(type) {
	case *goja.Symbol:
		return ValueSymbol
	case *goja.Object:
		return objectType(o)
	}

	switch v.ExportType() {
	case typeString:
		return ValueString
	case typeBool:
		return ValueBoolean
	default:
		return ValueNumber
	}
}

func objectType(o *goja.Object) ValueType {
	if _, ok := goja.AssertFunction(o); ok {
		return ValueFunction
	}
	switch o.ClassName() {
	case "Array":
		return ValueArray
	case "Error":
		return ValueError
	}
	if o.ExportType() == typeBuffer {
		return ValueArrayBuffer
	}
	switch stringTag(o) {
	case "ArrayBuffer":
		return ValueArrayBuffer
	case "DataView":
		return ValueDataView
	case "Int8Array", "Uint8Array", "Uint8ClampedArray", "Int16Array", "Uint16Array",
		"Int32Array", "Uint32Array", "Float32Array", "Float64Array", "BigInt64Array", "BigUint64Array":
		return ValueTypedArray
	}
	return ValueObject
}

// stringTag reads o[Symbol.toStringTag], treating a throwing getter as
// no tag.
func stringTag(o *goja.Object) (tag string) {
	defer func() {
		if recover() != nil {
			tag = ""
		}
	}()
	v := o.GetSymbol(goja.SymToStringTag)
	if v == nil || typeOf(v) != ValueString {
		return ""
	}
	return v.String()
}

// GetValueType returns the type tag of ref.
func (c *Context) GetValueType(ref Ref) (ValueType, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return ValueUndefined, code
	}
	v, code := c.value(ref)
	if code != NoError {
		return ValueUndefined, code
	}
	return typeOf(v), NoError
}

// GetUndefinedValue returns a new ref to undefined.
func (c *Context) GetUndefinedValue() (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(goja.Undefined())
}

// GetNullValue returns a new ref to null.
func (c *Context) GetNullValue() (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(goja.Null())
}

// BoolToBoolean converts b to an engine boolean.
func (c *Context) BoolToBoolean(b bool) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(c.vm.ToValue(b))
}

// BooleanToBool reads an engine boolean.
func (c *Context) BooleanToBool(ref Ref) (bool, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return false, code
	}
	v, code := c.value(ref)
	if code != NoError {
		return false, code
	}
	if typeOf(v) != ValueBoolean {
		return false, ErrorInvalidArgument
	}
	return v.ToBoolean(), NoError
}

// DoubleToNumber converts d to an engine number.
func (c *Context) DoubleToNumber(d float64) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(c.vm.ToValue(d))
}

// NumberToDouble reads an engine number.
func (c *Context) NumberToDouble(ref Ref) (float64, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return math.NaN(), code
	}
	v, code := c.value(ref)
	if code != NoError {
		return math.NaN(), code
	}
	if typeOf(v) != ValueNumber {
		return math.NaN(), ErrorInvalidArgument
	}
	return v.ToFloat(), NoError
}

// CreateString creates an engine string from UTF-8.
func (c *Context) CreateString(s string) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	return c.newRef(c.vm.ToValue(s), stringOverhead+uint64(len(s)))
}

// StringToUTF8 reads an engine string.
func (c *Context) StringToUTF8(ref Ref) (string, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return "", code
	}
	v, code := c.value(ref)
	if code != NoError {
		return "", code
	}
	if typeOf(v) != ValueString {
		return "", ErrorInvalidArgument
	}
	return v.String(), NoError
}

// ConvertValueToString applies ToString to any value. Objects may run
// script and throw.
func (c *Context) ConvertValueToString(ref Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	v, code := c.value(ref)
	if code != NoError {
		return InvalidRef, code
	}
	var s goja.Value
	if code := c.guard(func() {
		if _, ok := v.(*goja.Symbol); ok {
			panic(c.vm.NewTypeError("Cannot convert a Symbol value to a string"))
		}
		s = c.vm.ToValue(v.String())
	}); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(s)
}

// StrictEquals compares two values with ===.
func (c *Context) StrictEquals(a, b Ref) (bool, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return false, code
	}
	va, code := c.value(a)
	if code != NoError {
		return false, code
	}
	vb, code := c.value(b)
	if code != NoError {
		return false, code
	}
	return va.StrictEquals(vb), NoError
}

// CreateSymbol creates a symbol with the given description ref, which may
// be InvalidRef.
func (c *Context) CreateSymbol(description Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	desc := ""
	if description != InvalidRef {
		v, code := c.value(description)
		if code != NoError {
			return InvalidRef, code
		}
		desc = v.String()
	}
	return c.newRef(goja.NewSymbol(desc), symbolSize)
}

// SymbolToString renders a symbol as Symbol(description).
func (c *Context) SymbolToString(ref Ref) (string, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return "", code
	}
	v, code := c.value(ref)
	if code != NoError {
		return "", code
	}
	sym, ok := v.(*goja.Symbol)
	if !ok {
		return "", ErrorInvalidArgument
	}
	return "Symbol(" + sym.String() + ")", NoError
}
