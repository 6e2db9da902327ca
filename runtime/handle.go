package runtime

import (
	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
)

type handleState uint8

const (
	handleUninitialized handleState = iota
	handleInitialized
	handleInvalidated
)

func (s handleState) String() string {
	switch s {
	case handleUninitialized:
		return "uninitialized"
	case handleInitialized:
		return "initialized"
	case handleInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// handle owns exactly one count on an engine ref. It is released once by
// invalidate; any use afterwards is fatal.
type handle struct {
	ctx   *engine.Context
	ref   engine.Ref
	state handleState
}

// retain adds a count to ref and owns it.
func retain(ctx *engine.Context, ref engine.Ref) handle {
	if ref == engine.InvalidRef {
		errors.Fatal(errors.PhaseLifecycle, "retain of invalid engine reference")
	}
	if _, code := ctx.AddRef(ref); code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "AddRef(%d) returned %s", ref, code)
	}
	return handle{ctx: ctx, ref: ref, state: handleInitialized}
}

// adopt owns the count the engine handed out with ref.
func adopt(ctx *engine.Context, ref engine.Ref) handle {
	if ref == engine.InvalidRef {
		errors.Fatal(errors.PhaseLifecycle, "adopt of invalid engine reference")
	}
	return handle{ctx: ctx, ref: ref, state: handleInitialized}
}

func (h *handle) get() engine.Ref {
	if h.state != handleInitialized {
		errors.Fatal(errors.PhaseLifecycle, "use of %s engine reference", h.state)
	}
	return h.ref
}

func (h *handle) clone() handle {
	return retain(h.ctx, h.get())
}

func (h *handle) invalidate() {
	if h.state != handleInitialized {
		errors.Fatal(errors.PhaseLifecycle, "invalidate of %s engine reference", h.state)
	}
	ref := h.ref
	h.state = handleInvalidated
	h.ref = engine.InvalidRef
	if _, code := h.ctx.Release(ref); code != engine.NoError {
		errors.Fatal(errors.PhaseLifecycle, "Release(%d) returned %s", ref, code)
	}
}
