// Package errors provides structured error types for the jsi-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: property path, failing engine call, engine
// error code, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEngine, errors.KindEngine).
//		Call("SetProperty").
//		Code("ErrorInvalidArgument").
//		Detail("property id is not valid").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.EngineCall("CreateObject", code.String())
//	err := errors.Unsupported(errors.PhaseHost, "getHostFunction")
//
// Fatal preconditions (double release of a pointer value, cross-thread engine use,
// teardown order violations) go through Fatal, which invokes the fail-fast handler.
// Tests install a handler with SetFailFast to observe them.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
