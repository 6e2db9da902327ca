// Package jsi defines the engine-agnostic scripting interface.
//
// A Runtime exposes values, objects, strings, functions, property names,
// weak references and prepared scripts without revealing the engine
// behind it. Values are tagged unions:
//
//	v := jsi.Number(3)
//	s := jsi.StringValue(rt.CreateString("x"))
//	defer s.Release()
//
// # Ownership
//
// Strings, symbols, objects, property ids and weak objects are pointer
// kinds. Each is backed by a PointerValue held by exactly one owner. Clone
// creates a second owner referencing the same engine object; Release drops
// one owner. Values returned by Runtime methods are owned by the caller,
// arguments are borrowed.
//
//	obj := rt.CreateObject()
//	alias := obj.Clone()
//	obj.Release()   // alias stays valid
//	alias.Release()
//
// # Host objects and functions
//
// HostObject and HostFunction let native code appear in script as ordinary
// objects and functions. Errors returned from them are rethrown into script.
package jsi
