// Package debugger implements the inspector endpoint of a runtime.
//
// A Session listens on ws://127.0.0.1:<port>/<name> (9229 and runtime1 by
// default). Commands arrive as JSON objects {id, method, params} on
// connection goroutines and are queued on the ProtocolHandler; the
// OnCommandQueued hook is expected to post ProcessCommandQueue onto the
// script task queue, so commands always execute on the goroutine that owns
// the engine.
//
// Session states:
//
//	Detached -> Listening -> [WaitingForDebugger] -> Attached -> Closed
//
// Supported methods are Runtime.evaluate, Runtime.getHeapUsage,
// Runtime.runIfWaitingForDebugger, Debugger.enable, Debugger.disable,
// Debugger.pause, Debugger.resume and Schema.getDomains. Anything else is
// answered with -32601.
package debugger
