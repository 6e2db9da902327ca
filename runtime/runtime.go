package runtime

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/debugger"
	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

var _ jsi.Runtime = (*Runtime)(nil)

// Runtime implements jsi.Runtime on the engine API. It is bound to the
// goroutine that called New.
type Runtime struct {
	rt          *engine.Runtime
	ctx         *engine.Context
	proxies     proxyFactory
	session     *debugger.Session
	logger      *zap.Logger
	version     engine.EngineVersion
	args        RuntimeArgs
	assumptions RuntimeAssumptions
	empty       handle
	hostObjects atomic.Int64
	hostFuncs   atomic.Int64
	depth       int
	closed      bool
}

// New creates a runtime and makes its context current on the calling
// goroutine.
func New(args RuntimeArgs) (*Runtime, error) {
	if args.Queue == nil && (args.EnableNativePromiseSupport || args.EnableDebugging) {
		return nil, errors.NotInitialized(errors.PhaseLifecycle, "script task queue")
	}

	r := &Runtime{args: args, logger: args.logger()}
	if args.Assumptions != nil {
		r.assumptions = *args.Assumptions
	} else {
		r.assumptions = EngineAssumptions()
	}

	attrs := engine.AttributeNone
	if !args.EnableJIT {
		attrs |= engine.AttributeDisableNativeCodeGeneration | engine.AttributeDisableExecutablePageAllocation
	}
	rt, code := engine.CreateRuntime(attrs)
	if code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "CreateRuntime returned %s", code)
	}
	r.rt = rt

	r.setupMemoryTracker()

	ctx, code := rt.CreateContext()
	if code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "CreateContext returned %s", code)
	}
	if code := rt.SetCurrentContext(ctx); code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "SetCurrentContext returned %s", code)
	}
	r.ctx = ctx

	empty, code := ctx.CreateString("")
	if code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "CreateString returned %s", code)
	}
	r.empty = adopt(ctx, empty)

	if r.assumptions.SupportsNativeProxy {
		r.proxies = &nativeProxyFactory{r: r}
	} else {
		r.proxies = &scriptProxyFactory{r: r}
	}

	r.startDebuggingIfNeeded()

	if err := r.setupNativePromiseContinuation(); err != nil {
		r.Close()
		return nil, err
	}

	r.version = engine.Version()

	if args.EnableConsole {
		if err := r.check("EnableConsole", ctx.EnableConsole(engine.ZapPrinter{L: r.logger})); err != nil {
			r.Close()
			return nil, err
		}
	}

	r.logger.Debug("runtime created",
		zap.String("description", r.Description()),
		zap.String("engine", r.version.String()),
		zap.Bool("jit", args.EnableJIT),
		zap.Bool("native_proxy", r.assumptions.SupportsNativeProxy))
	return r, nil
}

// Close tears the runtime down: debugging stops, the context is cleared
// and released, the allocation callback is removed and the engine is
// disposed. Values still held by the caller become inert.
func (r *Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.session != nil {
		err = r.session.Close()
		r.session = nil
	}

	if r.proxies != nil {
		r.proxies.release()
	}
	r.empty.invalidate()

	if code := r.rt.SetCurrentContext(nil); code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "clearing current context returned %s", code)
	}
	if code := r.ctx.Close(); code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "releasing context returned %s", code)
	}

	r.rt.SetMemoryAllocationCallback(nil, nil)

	if code := r.rt.Dispose(); code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "disposing runtime returned %s", code)
	}

	r.logger.Debug("runtime closed")
	return err
}

// Assumptions returns the capabilities the runtime was built with.
func (r *Runtime) Assumptions() RuntimeAssumptions {
	return r.assumptions
}

// Signature identifies bytecode produced by this runtime.
func (r *Runtime) Signature() jsi.RuntimeSignature {
	return jsi.RuntimeSignature{Label: r.Description(), Version: r.version.Packed}
}

// Description returns the configured description or the engine name.
func (r *Runtime) Description() string {
	if r.args.Description != "" {
		return r.args.Description
	}
	return r.assumptions.Name
}

// IsInspectable reports whether debugging was requested.
func (r *Runtime) IsInspectable() bool {
	return r.args.EnableDebugging
}

// Debugger returns the debug session, nil when debugging is off or
// failed to start.
func (r *Runtime) Debugger() *debugger.Session {
	return r.session
}

// Global returns the global object.
func (r *Runtime) Global() jsi.Object {
	ref, code := r.ctx.GetGlobalObject()
	if code != engine.NoError {
		ref = engine.InvalidRef
		r.failed("GetGlobalObject", code)
	}
	return r.mustObject(ref)
}

// PushScope opens a scope. Scopes only mark collection points.
func (r *Runtime) PushScope() *jsi.ScopeState {
	r.depth++
	return &jsi.ScopeState{Depth: r.depth}
}

// PopScope closes s and runs a blocking garbage collection.
func (r *Runtime) PopScope(s *jsi.ScopeState) {
	if s == nil || s.Depth != r.depth {
		errors.Fatal(errors.PhaseLifecycle, "scopes popped out of order")
	}
	r.depth--
	if code := r.rt.CollectGarbage(); code != engine.NoError {
		if err := r.check("CollectGarbage", code); err != nil {
			r.logger.Warn("garbage collection failed", zap.Error(err))
		}
	}
}

// LiveHostObjects returns the number of host objects not yet collected.
func (r *Runtime) LiveHostObjects() int {
	return int(r.hostObjects.Load())
}

// LiveHostFunctions returns the number of host functions not yet
// collected.
func (r *Runtime) LiveHostFunctions() int {
	return int(r.hostFuncs.Load())
}

// MemoryUsage returns the engine's tracked memory usage.
func (r *Runtime) MemoryUsage() uint64 {
	return r.rt.MemoryUsage()
}

func (r *Runtime) startDebuggingIfNeeded() {
	if !r.args.EnableDebugging {
		return
	}
	if !r.assumptions.SupportsNativeDebugProtocol {
		r.logger.Warn("debugging requested but the engine has no debug protocol")
		return
	}

	var session *debugger.Session
	session = debugger.NewSession(debugBackend{r: r}, debugger.Options{
		Logger:          r.logger,
		Name:            r.args.DebuggerName,
		Port:            r.args.DebuggerPort,
		BreakOnStart:    r.args.DebuggerBreakOnStart,
		OnCommandQueued: func() { r.postDebuggerDrain(session) },
	})
	if err := session.Start(context.Background()); err != nil {
		return
	}
	r.session = session

	if r.args.DebuggerBreakOnStart {
		if err := session.WaitForDebugger(context.Background()); err != nil {
			r.logger.Warn("waiting for debugger failed", zap.Error(err))
		}
	}
}

// postDebuggerDrain runs on a connection goroutine; the drain itself
// happens on the task queue.
func (r *Runtime) postDebuggerDrain(session *debugger.Session) {
	r.args.Queue.RunOnQueue(func() {
		if r.closed {
			return
		}
		session.ProcessCommandQueue()
	})
}

func (r *Runtime) setupMemoryTracker() {
	tracker := r.args.MemoryTracker
	if tracker == nil {
		return
	}
	tracker.Initialize(r.rt.MemoryUsage())
	if r.args.MemoryLimit > 0 {
		r.rt.SetMemoryLimit(r.args.MemoryLimit)
	}
	r.rt.SetMemoryAllocationCallback(tracker, func(_ any, event engine.AllocationEvent, size uint64) bool {
		switch event {
		case engine.AllocationRequest:
			tracker.OnAllocation(size)
		case engine.AllocationFree:
			tracker.OnDeallocation(size)
		}
		return true
	})
}

// mustObject wraps ref for methods that cannot report errors. Under
// StrictHandles a missing ref is fatal.
func (r *Runtime) mustObject(ref engine.Ref) jsi.Object {
	o, err := r.objectOrFresh(ref)
	if err != nil {
		errors.FatalError(err.(*errors.Error))
	}
	return o
}

func (r *Runtime) mustString(ref engine.Ref) jsi.String {
	s, err := r.stringOrEmpty(ref)
	if err != nil {
		errors.FatalError(err.(*errors.Error))
	}
	return s
}
