// Package engine provides a JSRT-style C API over the goja ECMAScript engine.
//
// Every operation returns an ErrorCode. Values, property ids and weak
// references are handed out as reference-counted Ref handles that must be
// released with Release. Script exceptions are not returned as Go errors;
// a failing call leaves the exception pending on the context until it is
// taken with GetAndClearException, and every other call except the
// exception and ref management functions reports ErrorInExceptionState until
// then.
//
// # Architecture
//
//	Runtime  - Memory accounting, attributes and the current context
//	Context  - A goja VM plus its ref table, callbacks and external data
//	Ref      - Handle into the context's resource.Table
//
// # Threading
//
// A context is bound to the goroutine that first makes it current. Calls
// from any other goroutine return ErrorWrongThread. Before-collect
// callbacks and the cleanup of native functions run on the collector's
// cleanup goroutine and must not call into the engine.
//
// # Serialized Scripts
//
// goja has no portable bytecode. SerializeScript returns a fixed header
// binding the buffer to the engine build and the source hash, and keeps
// the compiled program in the context's cache. RunSerialized verifies the
// header against the source supplied by its loader and reports
// ErrorBadSerializedScript for a stale or foreign buffer.
//
// # Memory
//
// Values created through the API are charged an estimated size. A memory
// limit set with SetMemoryLimit turns allocations beyond it into
// ErrorOutOfMemory, and an AllocationCallback can observe or deny them.
package engine
