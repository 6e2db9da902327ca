// Package runtime implements jsi.Runtime on the handle-based engine API.
//
// A Runtime owns one engine runtime and one context, bound to the
// goroutine that called New. Every jsi pointer it returns holds exactly
// one engine reference, released when the pointer is released.
//
// # Host Objects
//
// Host objects are external objects wrapped in a proxy whose get, set,
// ownKeys and getOwnPropertyDescriptor traps call into the HostObject.
// Depending on RuntimeAssumptions the proxy is built with engine traps or
// with a script Proxy constructor. Two reserved properties identify host
// objects and expose their target:
//
//	$$ProxyIsHostObject$$
//	$$ProxyGetHostObjectTarget$$
//
// # Prepared Scripts
//
// EvaluateScript consults RuntimeArgs.ScriptStore for the script version
// and RuntimeArgs.PreparedScriptStore for bytecode keyed by the script and
// runtime signatures. Misses regenerate and persist bytecode; rejected
// bytecode runs from source.
//
// # Failure Policy
//
// Contract violations (using a released value, calling from another
// goroutine, popping scopes out of order) go through errors.Fatal.
// Script exceptions are returned as *jsi.JSError.
package runtime
