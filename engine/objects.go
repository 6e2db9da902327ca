package engine

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/jsi-runtime/resource"
)

// PropertyFlags describe a data property.
type PropertyFlags uint8

const (
	PropertyWritable PropertyFlags = 1 << iota
	PropertyEnumerable
	PropertyConfigurable

	PropertyDefault = PropertyWritable | PropertyEnumerable | PropertyConfigurable
)

func flag(set bool) goja.Flag {
	if set {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}

type propertyID struct {
	sym  *goja.Symbol
	name string
}

func (c *Context) propertyID(ref Ref) (*propertyID, ErrorCode) {
	if ref == InvalidRef {
		return nil, ErrorNullArgument
	}
	p, ok := c.refs.GetKind(resource.Handle(ref), kindPropertyID)
	if !ok {
		return nil, ErrorInvalidArgument
	}
	return p.(*propertyID), NoError
}

func (p *propertyID) key(vm *goja.Runtime) goja.Value {
	if p.sym != nil {
		return p.sym
	}
	return vm.ToValue(p.name)
}

// CreatePropertyID creates a property id for a string name.
func (c *Context) CreatePropertyID(name string) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	h := c.refs.Insert(kindPropertyID, &propertyID{name: name})
	if h == 0 {
		return InvalidRef, ErrorInvalidContext
	}
	return Ref(h), NoError
}

// CreatePropertyIDFromSymbol creates a property id for a symbol value.
func (c *Context) CreatePropertyIDFromSymbol(symbol Ref) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	v, code := c.value(symbol)
	if code != NoError {
		return InvalidRef, code
	}
	sym, ok := v.(*goja.Symbol)
	if !ok {
		return InvalidRef, ErrorPropertyNotSymbol
	}
	h := c.refs.Insert(kindPropertyID, &propertyID{sym: sym})
	if h == 0 {
		return InvalidRef, ErrorInvalidContext
	}
	return Ref(h), NoError
}

// GetPropertyNameFromID returns the name of a string property id.
func (c *Context) GetPropertyNameFromID(id Ref) (string, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return "", code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return "", code
	}
	if p.sym != nil {
		return "", ErrorPropertyNotString
	}
	return p.name, NoError
}

// GetSymbolFromPropertyID returns the symbol of a symbol property id.
func (c *Context) GetSymbolFromPropertyID(id Ref) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return InvalidRef, code
	}
	if p.sym == nil {
		return InvalidRef, ErrorPropertyNotSymbol
	}
	return c.wrap(p.sym)
}

// PropertyIDEquals compares two property ids.
func (c *Context) PropertyIDEquals(a, b Ref) (bool, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return false, code
	}
	pa, code := c.propertyID(a)
	if code != NoError {
		return false, code
	}
	pb, code := c.propertyID(b)
	if code != NoError {
		return false, code
	}
	if pa.sym != nil || pb.sym != nil {
		return pa.sym == pb.sym, NoError
	}
	return pa.name == pb.name, NoError
}

// GetGlobalObject returns the global object.
func (c *Context) GetGlobalObject() (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(c.vm.GlobalObject())
}

// CreateObject creates an empty object.
func (c *Context) CreateObject() (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	return c.newRef(c.vm.NewObject(), objectSize)
}

// GetProperty reads obj[id].
func (c *Context) GetProperty(obj, id Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return InvalidRef, code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return InvalidRef, code
	}

	var v goja.Value
	code = c.guard(func() {
		if p.sym != nil {
			v = o.GetSymbol(p.sym)
		} else {
			v = o.Get(p.name)
		}
	})
	if code != NoError {
		return InvalidRef, code
	}
	return c.wrap(v)
}

// SetProperty assigns obj[id] = value. With strict set, failed assignments
// throw; otherwise they are ignored like sloppy-mode code.
func (c *Context) SetProperty(obj, id, value Ref, strict bool) ErrorCode {
	if code := c.enter(); code != NoError {
		return code
	}
	o, code := c.object(obj)
	if code != NoError {
		return code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return code
	}
	v, code := c.value(value)
	if code != NoError {
		return code
	}

	var err error
	code = c.guard(func() {
		if p.sym != nil {
			err = o.SetSymbol(p.sym, v)
		} else {
			err = o.Set(p.name, v)
		}
	})
	if code == NoError && err != nil {
		code = c.fail(err)
	}
	if code == ErrorScriptException && !strict && c.isTypeError(c.exception) {
		c.exception = nil
		return NoError
	}
	return code
}

// HasProperty evaluates id in obj.
func (c *Context) HasProperty(obj, id Ref) (bool, ErrorCode) {
	if code := c.enter(); code != NoError {
		return false, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return false, code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return false, code
	}
	in, code := c.helper(&c.helpers.has, helperHas)
	if code != NoError {
		return false, code
	}
	res, err := in(goja.Undefined(), o, p.key(c.vm))
	if err != nil {
		return false, c.fail(err)
	}
	return res.ToBoolean(), NoError
}

// DeleteProperty removes obj[id].
func (c *Context) DeleteProperty(obj, id Ref) ErrorCode {
	if code := c.enter(); code != NoError {
		return code
	}
	o, code := c.object(obj)
	if code != NoError {
		return code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return code
	}
	var err error
	if p.sym != nil {
		err = o.DeleteSymbol(p.sym)
	} else {
		err = o.Delete(p.name)
	}
	if err != nil {
		return c.fail(err)
	}
	return NoError
}

// DefineDataProperty defines obj[id] as a data property.
func (c *Context) DefineDataProperty(obj, id, value Ref, flags PropertyFlags) ErrorCode {
	if code := c.enter(); code != NoError {
		return code
	}
	o, code := c.object(obj)
	if code != NoError {
		return code
	}
	p, code := c.propertyID(id)
	if code != NoError {
		return code
	}
	v, code := c.value(value)
	if code != NoError {
		return code
	}

	w := flag(flags&PropertyWritable != 0)
	cf := flag(flags&PropertyConfigurable != 0)
	e := flag(flags&PropertyEnumerable != 0)

	var err error
	if p.sym != nil {
		err = o.DefineDataPropertySymbol(p.sym, v, w, cf, e)
	} else {
		err = o.DefineDataProperty(p.name, v, w, cf, e)
	}
	if err != nil {
		return c.fail(err)
	}
	return NoError
}

// GetOwnPropertyNames returns an array of obj's own string keys, including
// non-enumerable ones.
func (c *Context) GetOwnPropertyNames(obj Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return InvalidRef, code
	}
	names, code := c.helper(&c.helpers.ownNames, helperOwnNames)
	if code != NoError {
		return InvalidRef, code
	}
	res, err := names(goja.Undefined(), o)
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.wrap(res)
}

// GetPrototype returns obj's prototype, null at the end of the chain.
func (c *Context) GetPrototype(obj Ref) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return InvalidRef, code
	}
	var proto *goja.Object
	if code := c.guard(func() { proto = o.Prototype() }); code != NoError {
		return InvalidRef, code
	}
	if proto == nil {
		return c.wrap(goja.Null())
	}
	return c.wrap(proto)
}

// InstanceOf evaluates obj instanceof ctor.
func (c *Context) InstanceOf(obj, ctor Ref) (bool, ErrorCode) {
	if code := c.enter(); code != NoError {
		return false, code
	}
	o, code := c.value(obj)
	if code != NoError {
		return false, code
	}
	f, code := c.object(ctor)
	if code != NoError {
		return false, code
	}
	fn, code := c.helper(&c.helpers.instanceOf, helperInstanceOf)
	if code != NoError {
		return false, code
	}
	res, err := fn(goja.Undefined(), o, f)
	if err != nil {
		return false, c.fail(err)
	}
	return res.ToBoolean(), NoError
}

// CreateArray creates an array of the given length.
func (c *Context) CreateArray(length uint32) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	arr := c.vm.NewArray()
	if length > 0 {
		if err := arr.Set("length", length); err != nil {
			return InvalidRef, c.fail(err)
		}
	}
	return c.newRef(arr, objectSize+uint64(length)*arraySlotSize)
}

// GetIndexedProperty reads obj[index].
func (c *Context) GetIndexedProperty(obj Ref, index uint32) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return InvalidRef, code
	}
	var v goja.Value
	if code := c.guard(func() { v = o.Get(strconv.FormatUint(uint64(index), 10)) }); code != NoError {
		return InvalidRef, code
	}
	return c.wrap(v)
}

// SetIndexedProperty assigns obj[index] = value.
func (c *Context) SetIndexedProperty(obj Ref, index uint32, value Ref) ErrorCode {
	if code := c.enter(); code != NoError {
		return code
	}
	o, code := c.object(obj)
	if code != NoError {
		return code
	}
	v, code := c.value(value)
	if code != NoError {
		return code
	}
	var err error
	code = c.guard(func() { err = o.Set(strconv.FormatUint(uint64(index), 10), v) })
	if code != NoError {
		return code
	}
	if err != nil {
		return c.fail(err)
	}
	return NoError
}

// CreateArrayBuffer creates a zero-filled ArrayBuffer.
func (c *Context) CreateArrayBuffer(size uint32) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	buf, err := c.vm.New(c.vm.Get("ArrayBuffer"), c.vm.ToValue(size))
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.newRef(buf, bufferOverhead+uint64(size))
}

// CreateExternalArrayBuffer creates an ArrayBuffer backed by data without
// copying. The caller must keep data unchanged while script can see it.
func (c *Context) CreateExternalArrayBuffer(data []byte) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	buf := c.vm.NewArrayBuffer(data)
	return c.newRef(c.vm.ToValue(buf), bufferOverhead)
}

// GetArrayBufferStorage returns the bytes backing an ArrayBuffer.
func (c *Context) GetArrayBufferStorage(obj Ref) ([]byte, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return nil, code
	}
	o, code := c.object(obj)
	if code != NoError {
		return nil, code
	}
	buf, ok := o.Export().(goja.ArrayBuffer)
	if !ok {
		return nil, ErrorInvalidArgument
	}
	return buf.Bytes(), NoError
}

func (c *Context) isTypeError(v goja.Value) bool {
	o, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	name := o.Get("name")
	return name != nil && name.String() == "TypeError"
}
