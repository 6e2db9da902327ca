// Package jsiruntime binds an engine-agnostic scripting interface to an
// embeddable ECMAScript engine.
//
// The library exposes values, objects, strings, functions, property names,
// weak references and prepared scripts through package jsi, and implements
// them on top of a handle-based native engine API.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jsiruntime/          Root package with TaskQueue and MemoryTracker interfaces
//	├── jsi/             Engine-agnostic values, pointers, host objects and Runtime interface
//	├── runtime/         Binding layer: value bridge, host proxies, script cache path, lifecycle
//	├── engine/          Handle-based C-style engine API over goja
//	├── resource/        Reference-counted handle table
//	├── scriptstore/     Prepared script stores and script version stores
//	├── debugger/        WebSocket debugger protocol session
//	├── queue/           Serial script task queue
//	├── errors/          Structured error types and fail-fast hook
//	└── cmd/jsirun/      Command-line runner and interactive console
//
// # Quick Start
//
// Evaluate a script:
//
//	q := queue.NewSerial()
//	rt, err := runtime.New(runtime.DefaultArgs().WithQueue(q))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	v, err := rt.EvaluateScript(jsi.StringBuffer("1+2"), "sum.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, _ := v.AsNumber() // 3
//	q.Drain()
//
// # Host Functions
//
// Expose Go functions to script:
//
//	name := rt.CreatePropNameIDFromASCII("add")
//	defer name.Release()
//	fn, err := rt.CreateFunctionFromHostFunction(name, 2,
//	    func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
//	        a, _ := args[0].AsNumber()
//	        b, _ := args[1].AsNumber()
//	        return jsi.Number(a + b), nil
//	    })
//
// # Prepared Scripts
//
// With a ScriptStore and PreparedScriptStore configured, EvaluateScript
// looks up cached bytecode keyed by script version and runtime signature,
// regenerates it on a miss, and falls back to source evaluation whenever
// the cached bytecode is rejected.
//
// # Thread Safety
//
// A Runtime is bound to the goroutine that created it. Calls from other
// goroutines are fatal. Work that originates elsewhere (promise jobs,
// debugger commands) is posted to the TaskQueue and runs when the owner
// drains it.
package jsiruntime
