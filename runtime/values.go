package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

func (r *Runtime) CreatePropNameIDFromASCII(s string) jsi.PropNameID {
	return r.createPropNameID(s)
}

func (r *Runtime) CreatePropNameIDFromUTF8(b []byte) jsi.PropNameID {
	return r.createPropNameID(string(b))
}

func (r *Runtime) CreatePropNameIDFromString(s jsi.String) jsi.PropNameID {
	return r.createPropNameID(r.StringUTF8(s))
}

// CreatePropNameIDFromSymbol returns a property id keyed by a symbol.
func (r *Runtime) CreatePropNameIDFromSymbol(s jsi.Symbol) jsi.PropNameID {
	id, code := r.ctx.CreatePropertyIDFromSymbol(r.ref(s.Pointer, "symbol"))
	if code != engine.NoError {
		errors.Fatal(errors.PhaseConvert, "CreatePropertyIDFromSymbol returned %s", code)
	}
	return r.makePropNameID(id)
}

func (r *Runtime) createPropNameID(name string) jsi.PropNameID {
	id, code := r.ctx.CreatePropertyID(name)
	if code != engine.NoError {
		errors.Fatal(errors.PhaseConvert, "CreatePropertyID(%q) returned %s", name, code)
	}
	return r.makePropNameID(id)
}

// PropNameUTF8 returns the name of id. Symbol ids render as
// Symbol(description).
func (r *Runtime) PropNameUTF8(id jsi.PropNameID) string {
	ref := r.ref(id.Pointer, "property id")
	name, code := r.ctx.GetPropertyNameFromID(ref)
	if code == engine.ErrorPropertyNotString {
		sym, code := r.ctx.GetSymbolFromPropertyID(ref)
		if code != engine.NoError {
			return ""
		}
		defer r.release(sym)
		s, _ := r.ctx.SymbolToString(sym)
		return s
	}
	if code != engine.NoError {
		r.failed("GetPropertyNameFromID", code)
	}
	return name
}

func (r *Runtime) ComparePropNames(a, b jsi.PropNameID) bool {
	eq, code := r.ctx.PropertyIDEquals(r.ref(a.Pointer, "property id"), r.ref(b.Pointer, "property id"))
	return code == engine.NoError && eq
}

func (r *Runtime) CreateString(s string) jsi.String {
	ref, code := r.ctx.CreateString(s)
	if code != engine.NoError {
		r.failed("CreateString", code, zap.Int("length", len(s)))
		ref = engine.InvalidRef
	}
	return r.mustString(ref)
}

func (r *Runtime) StringUTF8(s jsi.String) string {
	out, code := r.ctx.StringToUTF8(r.ref(s.Pointer, "string"))
	if code != engine.NoError {
		r.failed("StringToUTF8", code)
	}
	return out
}

func (r *Runtime) SymbolToString(s jsi.Symbol) string {
	out, code := r.ctx.SymbolToString(r.ref(s.Pointer, "symbol"))
	if code != engine.NoError {
		r.failed("SymbolToString", code)
	}
	return out
}

// CreateSymbol returns a new symbol with the given description.
func (r *Runtime) CreateSymbol(description string) (jsi.Symbol, error) {
	desc, code := r.ctx.CreateString(description)
	if code != engine.NoError {
		return jsi.Symbol{}, r.check("CreateString", code)
	}
	defer r.release(desc)
	sym, code := r.ctx.CreateSymbol(desc)
	if code != engine.NoError {
		return jsi.Symbol{}, r.check("CreateSymbol", code)
	}
	return r.makeSymbol(sym), nil
}

// ToString applies script ToString to v.
func (r *Runtime) ToString(v jsi.Value) (string, error) {
	if v.IsSymbol() {
		s, _ := v.AsSymbol()
		return r.SymbolToString(s), nil
	}
	ref, err := r.toRef(v)
	if err != nil {
		return "", err
	}
	defer r.release(ref)

	str, code := r.ctx.ConvertValueToString(ref)
	if code != engine.NoError {
		return "", r.check("ConvertValueToString", code)
	}
	defer r.release(str)
	out, code := r.ctx.StringToUTF8(str)
	if code != engine.NoError {
		return "", r.check("StringToUTF8", code)
	}
	return out, nil
}

func (r *Runtime) CreateObject() jsi.Object {
	ref, code := r.ctx.CreateObject()
	if code != engine.NoError {
		r.failed("CreateObject", code)
		ref = engine.InvalidRef
	}
	return r.mustObject(ref)
}

func (r *Runtime) GetProperty(o jsi.Object, name jsi.PropNameID) (jsi.Value, error) {
	ref, err := r.getProperty(r.ref(o.Pointer, "object"), r.ref(name.Pointer, "property id"))
	if err != nil {
		return jsi.Undefined(), err
	}
	return r.toValue(ref)
}

func (r *Runtime) getProperty(obj, id engine.Ref) (engine.Ref, error) {
	ref, code := r.ctx.GetProperty(obj, id)
	if code != engine.NoError {
		return engine.InvalidRef, r.check("GetProperty", code)
	}
	return ref, nil
}

// getNamed reads obj[name] as an owned ref.
func (r *Runtime) getNamed(obj engine.Ref, name string) (engine.Ref, error) {
	id, code := r.ctx.CreatePropertyID(name)
	if code != engine.NoError {
		return engine.InvalidRef, r.check("CreatePropertyID", code)
	}
	defer r.release(id)
	return r.getProperty(obj, id)
}

func (r *Runtime) HasProperty(o jsi.Object, name jsi.PropNameID) (bool, error) {
	has, code := r.ctx.HasProperty(r.ref(o.Pointer, "object"), r.ref(name.Pointer, "property id"))
	if code != engine.NoError {
		return false, r.check("HasProperty", code)
	}
	return has, nil
}

// SetProperty assigns with strict rules: writes that would silently fail
// in sloppy code throw.
func (r *Runtime) SetProperty(o jsi.Object, name jsi.PropNameID, v jsi.Value) error {
	val, err := r.toRef(v)
	if err != nil {
		return err
	}
	defer r.release(val)
	code := r.ctx.SetProperty(r.ref(o.Pointer, "object"), r.ref(name.Pointer, "property id"), val, true)
	return r.check("SetProperty", code)
}

// GetPropertyNames returns the enumerable string keys of o and of its
// prototypes up to, but excluding, Object.prototype.
func (r *Runtime) GetPropertyNames(o jsi.Object) (jsi.Array, error) {
	global, code := r.ctx.GetGlobalObject()
	if code != engine.NoError {
		return jsi.Array{}, r.check("GetGlobalObject", code)
	}
	defer r.release(global)

	objectCtor, err := r.getNamed(global, "Object")
	if err != nil {
		return jsi.Array{}, err
	}
	defer r.release(objectCtor)
	objectProto, err := r.getNamed(objectCtor, "prototype")
	if err != nil {
		return jsi.Array{}, err
	}
	defer r.release(objectProto)
	isEnumerable, err := r.getNamed(objectProto, "propertyIsEnumerable")
	if err != nil {
		return jsi.Array{}, err
	}
	defer r.release(isEnumerable)

	var names []engine.Ref
	defer func() { r.releaseAll(names) }()

	cur := r.ref(o.Pointer, "object")
	if _, code := r.ctx.AddRef(cur); code != engine.NoError {
		return jsi.Array{}, r.check("AddRef", code)
	}
	for {
		done, err := r.endOfChain(cur, objectProto)
		if err != nil || done {
			r.release(cur)
			if err != nil {
				return jsi.Array{}, err
			}
			break
		}

		names, err = r.collectEnumerable(names, cur, isEnumerable)
		if err != nil {
			r.release(cur)
			return jsi.Array{}, err
		}

		proto, code := r.ctx.GetPrototype(cur)
		r.release(cur)
		if code != engine.NoError {
			return jsi.Array{}, r.check("GetPrototype", code)
		}
		cur = proto
	}

	arr, code := r.ctx.CreateArray(uint32(len(names)))
	if code != engine.NoError {
		return jsi.Array{}, r.check("CreateArray", code)
	}
	for i, name := range names {
		if code := r.ctx.SetIndexedProperty(arr, uint32(i), name); code != engine.NoError {
			r.release(arr)
			return jsi.Array{}, r.check("SetIndexedProperty", code)
		}
	}
	return jsi.Array{Object: r.makeObject(arr)}, nil
}

func (r *Runtime) endOfChain(cur, objectProto engine.Ref) (bool, error) {
	typ, code := r.ctx.GetValueType(cur)
	if code != engine.NoError {
		return false, r.check("GetValueType", code)
	}
	if typ == engine.ValueNull {
		return true, nil
	}
	same, code := r.ctx.StrictEquals(cur, objectProto)
	if code != engine.NoError {
		return false, r.check("StrictEquals", code)
	}
	return same, nil
}

func (r *Runtime) collectEnumerable(names []engine.Ref, obj, isEnumerable engine.Ref) ([]engine.Ref, error) {
	own, code := r.ctx.GetOwnPropertyNames(obj)
	if code != engine.NoError {
		return names, r.check("GetOwnPropertyNames", code)
	}
	defer r.release(own)

	n, err := r.length(own)
	if err != nil {
		return names, err
	}
	for i := 0; i < n; i++ {
		name, code := r.ctx.GetIndexedProperty(own, uint32(i))
		if code != engine.NoError {
			return names, r.check("GetIndexedProperty", code)
		}
		res, code := r.ctx.CallFunction(isEnumerable, []engine.Ref{obj, name})
		if code != engine.NoError {
			r.release(name)
			return names, r.check("CallFunction", code)
		}
		enumerable, _ := r.ctx.BooleanToBool(res)
		r.release(res)
		if !enumerable {
			r.release(name)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// length reads obj.length as an int.
func (r *Runtime) length(obj engine.Ref) (int, error) {
	ref, err := r.getNamed(obj, "length")
	if err != nil {
		return 0, err
	}
	defer r.release(ref)
	n, code := r.ctx.NumberToDouble(ref)
	if code != engine.NoError {
		return 0, r.check("NumberToDouble", code)
	}
	if n < 0 {
		return 0, errors.InvalidData(errors.PhaseConvert, []string{"length"}, "invalid array length")
	}
	return int(n), nil
}

func (r *Runtime) valueType(o jsi.Object) engine.ValueType {
	typ, code := r.ctx.GetValueType(r.ref(o.Pointer, "object"))
	if code != engine.NoError {
		return engine.ValueUndefined
	}
	return typ
}

func (r *Runtime) IsArray(o jsi.Object) bool       { return r.valueType(o) == engine.ValueArray }
func (r *Runtime) IsArrayBuffer(o jsi.Object) bool { return r.valueType(o) == engine.ValueArrayBuffer }
func (r *Runtime) IsFunction(o jsi.Object) bool    { return r.valueType(o) == engine.ValueFunction }

func (r *Runtime) CreateArray(length int) (jsi.Array, error) {
	if length < 0 || uint64(length) > uint64(^uint32(0)) {
		return jsi.Array{}, errors.InvalidInput(errors.PhaseConvert, "array length out of range")
	}
	ref, code := r.ctx.CreateArray(uint32(length))
	if code != engine.NoError {
		return jsi.Array{}, r.check("CreateArray", code)
	}
	return jsi.Array{Object: r.makeObject(ref)}, nil
}

func (r *Runtime) ArraySize(a jsi.Array) (int, error) {
	return r.length(r.ref(a.Pointer, "array"))
}

func (r *Runtime) ArrayBufferSize(b jsi.ArrayBuffer) (int, error) {
	data, err := r.ArrayBufferData(b)
	return len(data), err
}

// ArrayBufferData returns the buffer's backing storage. Writes through
// the slice are visible to script.
func (r *Runtime) ArrayBufferData(b jsi.ArrayBuffer) ([]byte, error) {
	if !r.assumptions.SupportsExternalArrayBuffers {
		return nil, errors.Unsupported(errors.PhaseConvert, "ArrayBuffer storage access")
	}
	data, code := r.ctx.GetArrayBufferStorage(r.ref(b.Pointer, "array buffer"))
	if code != engine.NoError {
		return nil, r.check("GetArrayBufferStorage", code)
	}
	return data, nil
}

// CreateArrayBuffer returns an ArrayBuffer viewing data without copying.
func (r *Runtime) CreateArrayBuffer(data []byte) (jsi.ArrayBuffer, error) {
	ref, code := r.ctx.CreateExternalArrayBuffer(data)
	if code != engine.NoError {
		return jsi.ArrayBuffer{}, r.check("CreateExternalArrayBuffer", code)
	}
	return jsi.ArrayBuffer{Object: r.makeObject(ref)}, nil
}

func (r *Runtime) GetValueAtIndex(a jsi.Array, i int) (jsi.Value, error) {
	if i < 0 || uint64(i) > uint64(^uint32(0)) {
		return jsi.Undefined(), errors.InvalidInput(errors.PhaseConvert, "array index out of range")
	}
	ref, code := r.ctx.GetIndexedProperty(r.ref(a.Pointer, "array"), uint32(i))
	if code != engine.NoError {
		return jsi.Undefined(), r.check("GetIndexedProperty", code)
	}
	return r.toValue(ref)
}

func (r *Runtime) SetValueAtIndex(a jsi.Array, i int, v jsi.Value) error {
	if i < 0 || uint64(i) > uint64(^uint32(0)) {
		return errors.InvalidInput(errors.PhaseConvert, "array index out of range")
	}
	val, err := r.toRef(v)
	if err != nil {
		return err
	}
	defer r.release(val)
	return r.check("SetIndexedProperty", r.ctx.SetIndexedProperty(r.ref(a.Pointer, "array"), uint32(i), val))
}

func (r *Runtime) strictEquals(a, b jsi.Pointer, what string) bool {
	eq, code := r.ctx.StrictEquals(r.ref(a, what), r.ref(b, what))
	return code == engine.NoError && eq
}

func (r *Runtime) StrictEqualsSymbol(a, b jsi.Symbol) bool {
	return r.strictEquals(a.Pointer, b.Pointer, "symbol")
}

func (r *Runtime) StrictEqualsString(a, b jsi.String) bool {
	return r.strictEquals(a.Pointer, b.Pointer, "string")
}

func (r *Runtime) StrictEqualsObject(a, b jsi.Object) bool {
	return r.strictEquals(a.Pointer, b.Pointer, "object")
}

func (r *Runtime) InstanceOf(o jsi.Object, f jsi.Function) (bool, error) {
	ok, code := r.ctx.InstanceOf(r.ref(o.Pointer, "object"), r.ref(f.Pointer, "function"))
	if code != engine.NoError {
		return false, r.check("InstanceOf", code)
	}
	return ok, nil
}
