package jsi

// HostObject is a native object exposed to script. Names passed to Get and
// Set and the value passed to Set are borrowed; returned values and ids
// become owned by the runtime.
type HostObject interface {
	Get(rt Runtime, name PropNameID) (Value, error)
	Set(rt Runtime, name PropNameID, value Value) error
	PropertyNames(rt Runtime) ([]PropNameID, error)
}

// HostFunction is a native function callable from script. this and args are
// borrowed for the duration of the call. Returning a *JSError rethrows its
// script value and hands the JSError to the runtime, which releases it; any
// other error surfaces as a script Error.
type HostFunction func(rt Runtime, this Value, args []Value) (Value, error)

// BaseHostObject is an embeddable HostObject with no properties that
// rejects writes.
type BaseHostObject struct{}

func (BaseHostObject) Get(Runtime, PropNameID) (Value, error) { return Undefined(), nil }

func (BaseHostObject) Set(rt Runtime, name PropNameID, _ Value) error {
	return NewJSErrorMessage(rt, "TypeError: Cannot assign to property '"+rt.PropNameUTF8(name)+"' on HostObject with default setter")
}

func (BaseHostObject) PropertyNames(Runtime) ([]PropNameID, error) { return nil, nil }
