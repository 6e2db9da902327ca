package engine

import (
	"sync"

	"go.uber.org/zap"
)

// Attributes configure an engine runtime at creation.
type Attributes uint32

const (
	AttributeNone                            Attributes = 0
	AttributeDisableBackgroundWork           Attributes = 1 << 0
	AttributeAllowScriptInterrupt            Attributes = 1 << 1
	AttributeEnableIdleProcessing            Attributes = 1 << 2
	AttributeDisableNativeCodeGeneration     Attributes = 1 << 3
	AttributeDisableEval                     Attributes = 1 << 4
	AttributeEnableExperimentalFeatures      Attributes = 1 << 5
	AttributeDispatchSetExceptionsToDebugger Attributes = 1 << 6
	AttributeDisableExecutablePageAllocation Attributes = 1 << 7
)

// Has reports whether all bits of a are set.
func (attrs Attributes) Has(a Attributes) bool {
	return attrs&a == a
}

// Runtime is an engine instance. It owns contexts and the memory
// accounting shared by them.
type Runtime struct {
	current  *Context
	contexts map[*Context]struct{}
	mem      memory
	attrs    Attributes
	mu       sync.Mutex
	disposed bool
}

// CreateRuntime creates an engine runtime.
func CreateRuntime(attrs Attributes) (*Runtime, ErrorCode) {
	r := &Runtime{
		attrs:    attrs,
		contexts: make(map[*Context]struct{}),
	}
	Logger().Debug("runtime created", zap.Uint32("attributes", uint32(attrs)))
	return r, NoError
}

// Attributes returns the creation attributes.
func (r *Runtime) Attributes() Attributes {
	return r.attrs
}

// CreateContext creates a new script context in r.
func (r *Runtime) CreateContext() (*Context, ErrorCode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return nil, ErrorInvalidArgument
	}

	c := newContext(r)
	r.contexts[c] = struct{}{}
	return c, NoError
}

// SetCurrentContext makes c current and binds it to the calling goroutine.
// Passing nil clears the current context.
func (r *Runtime) SetCurrentContext(c *Context) ErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return ErrorInvalidArgument
	}

	if c == nil {
		if r.current != nil && !r.current.owner.held() {
			return ErrorWrongThread
		}
		r.current = nil
		return NoError
	}

	if c.rt != r || c.released.Load() {
		return ErrorInvalidArgument
	}
	if r.current != nil && r.current != c && !r.current.owner.held() {
		return ErrorRuntimeInUse
	}
	if !c.owner.claim() {
		return ErrorWrongThread
	}

	r.current = c
	return NoError
}

// CurrentContext returns the current context, nil if none.
func (r *Runtime) CurrentContext() *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// CollectGarbage runs a blocking collection pass.
func (r *Runtime) CollectGarbage() ErrorCode {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur != nil && !cur.owner.held() {
		return ErrorWrongThread
	}
	collect()
	return NoError
}

// Dispose tears the runtime down. The current context must be cleared
// first.
func (r *Runtime) Dispose() ErrorCode {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrorInvalidArgument
	}
	if r.current != nil {
		r.mu.Unlock()
		return ErrorRuntimeInUse
	}
	r.disposed = true
	remaining := make([]*Context, 0, len(r.contexts))
	for c := range r.contexts {
		remaining = append(remaining, c)
	}
	r.contexts = nil
	r.mu.Unlock()

	for _, c := range remaining {
		c.close()
	}

	Logger().Debug("runtime disposed", zap.Int("leaked_contexts", len(remaining)))
	return NoError
}

func (r *Runtime) isCurrent(c *Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current == c
}

func (r *Runtime) forget(c *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, c)
}
