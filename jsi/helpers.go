package jsi

import (
	"strconv"
)

// GetPropertyByName reads o[name].
func GetPropertyByName(rt Runtime, o Object, name string) (Value, error) {
	id := rt.CreatePropNameIDFromUTF8([]byte(name))
	defer id.Release()
	return rt.GetProperty(o, id)
}

// SetPropertyByName assigns o[name] = v. v stays owned by the caller.
func SetPropertyByName(rt Runtime, o Object, name string, v Value) error {
	id := rt.CreatePropNameIDFromUTF8([]byte(name))
	defer id.Release()
	return rt.SetProperty(o, id, v)
}

// HasPropertyByName reports whether name is in o.
func HasPropertyByName(rt Runtime, o Object, name string) (bool, error) {
	id := rt.CreatePropNameIDFromUTF8([]byte(name))
	defer id.Release()
	return rt.HasProperty(o, id)
}

// GetFunctionByName reads o[name] and checks it is callable.
func GetFunctionByName(rt Runtime, o Object, name string) (Function, error) {
	v, err := GetPropertyByName(rt, o, name)
	if err != nil {
		return Function{}, err
	}
	obj, err := v.AsObject()
	if err != nil {
		v.Release()
		return Function{}, err
	}
	fn, err := obj.AsFunction(rt)
	if err != nil {
		v.Release()
		return Function{}, err
	}
	return fn, nil
}

// StrictEquals compares two values with === semantics.
func StrictEquals(rt Runtime, a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return rt.StrictEqualsString(String{a.ptr}, String{b.ptr})
	case KindSymbol:
		return rt.StrictEqualsSymbol(Symbol{a.ptr}, Symbol{b.ptr})
	case KindObject:
		return rt.StrictEqualsObject(Object{a.ptr}, Object{b.ptr})
	default:
		return false
	}
}

// ToDisplayString renders v for logs and error messages without throwing.
func ToDisplayString(rt Runtime, v Value) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindString:
		return rt.StringUTF8(String{v.ptr})
	case KindSymbol:
		return rt.SymbolToString(Symbol{v.ptr})
	default:
		s, err := rt.ToString(v)
		if err != nil {
			return "[object]"
		}
		return s
	}
}
