package runtime

import (
	"go.uber.org/zap"

	jsiruntime "github.com/wippyai/jsi-runtime"
	"github.com/wippyai/jsi-runtime/debugger"
	"github.com/wippyai/jsi-runtime/jsi"
)

// RuntimeArgs configure a Runtime.
type RuntimeArgs struct {
	// Queue receives promise jobs and debugger drains. Required when
	// native promise support or debugging is enabled.
	Queue jsiruntime.TaskQueue

	Logger *zap.Logger

	// MemoryTracker observes engine allocations. MemoryLimit only takes
	// effect together with a tracker.
	MemoryTracker jsiruntime.MemoryTracker

	// ScriptStore supplies script versions. Without it EvaluateScript
	// always runs source directly.
	ScriptStore jsi.ScriptStore

	// PreparedScriptStore caches bytecode when ScriptStore reports a
	// version for a script.
	PreparedScriptStore jsi.PreparedScriptStore

	// Assumptions overrides the capabilities derived from the engine.
	Assumptions *RuntimeAssumptions

	Description  string
	CacheTag     string
	DebuggerName string
	DebuggerPort int
	MemoryLimit  uint64

	EnableJIT                  bool
	EnableDebugging            bool
	DebuggerBreakOnStart       bool
	EnableNativePromiseSupport bool
	EnableConsole              bool

	// StrictHandles reports engine failures that produced no handle as
	// errors instead of substituting an empty string or a fresh object.
	StrictHandles bool
}

// DefaultArgs returns arguments with JIT enabled and the default
// debugger endpoint.
func DefaultArgs() RuntimeArgs {
	return RuntimeArgs{
		EnableJIT:    true,
		DebuggerName: debugger.DefaultName,
		DebuggerPort: debugger.DefaultPort,
	}
}

// WithQueue returns a copy of a using q as the script task queue.
func (a RuntimeArgs) WithQueue(q jsiruntime.TaskQueue) RuntimeArgs {
	a.Queue = q
	return a
}

// WithLogger returns a copy of a logging to l.
func (a RuntimeArgs) WithLogger(l *zap.Logger) RuntimeArgs {
	a.Logger = l
	return a
}

// WithScriptCache returns a copy of a evaluating through the given stores.
func (a RuntimeArgs) WithScriptCache(scripts jsi.ScriptStore, prepared jsi.PreparedScriptStore) RuntimeArgs {
	a.ScriptStore = scripts
	a.PreparedScriptStore = prepared
	return a
}

// WithDebugging returns a copy of a with the debugger enabled on port.
func (a RuntimeArgs) WithDebugging(port int, breakOnStart bool) RuntimeArgs {
	a.EnableDebugging = true
	a.DebuggerPort = port
	a.DebuggerBreakOnStart = breakOnStart
	return a
}

func (a *RuntimeArgs) logger() *zap.Logger {
	if a.Logger == nil {
		return Logger()
	}
	return a.Logger
}
