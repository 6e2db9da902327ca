package runtime

import (
	stderrors "errors"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

const hostExceptionPrefix = "Exception in HostFunction: "

// hostException is an error raised by the binding itself while serving a
// host call.
type hostException string

func (e hostException) Error() string { return string(e) }

// callHost runs fn, turning a panic into an error. Fatal precondition
// panics keep unwinding.
func callHost(fn func() error) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if e, ok := rec.(*errors.Error); ok && e.Kind == errors.KindFatal {
			panic(rec)
		}
		if e, ok := rec.(error); ok {
			err = e
			return
		}
		err = hostException("<unknown>")
	}()
	return fn()
}

// hostFunctionProxy is the callback state of a host function.
type hostFunctionProxy struct {
	fn jsi.HostFunction
	rt *Runtime
}

func releaseHostFunction(state any) {
	state.(*hostFunctionProxy).rt.hostFuncs.Add(-1)
}

// inlineArgs is the number of arguments converted without allocating.
const inlineArgs = 8

func hostFunctionCall(state any, args []engine.Ref) engine.Ref {
	p := state.(*hostFunctionProxy)
	r := p.rt

	this, err := r.borrowValue(args[0])
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	defer this.Release()

	var inline [inlineArgs]jsi.Value
	var vals []jsi.Value
	if n := len(args) - 1; n <= inlineArgs {
		vals = inline[:0]
	} else {
		vals = make([]jsi.Value, 0, n)
	}
	defer func() { jsi.ReleaseValues(vals) }()

	for _, a := range args[1:] {
		v, err := r.borrowValue(a)
		if err != nil {
			r.throwError(err)
			return engine.InvalidRef
		}
		vals = append(vals, v)
	}

	var ret jsi.Value
	if err := callHost(func() (err error) {
		ret, err = p.fn(r, this, vals)
		return err
	}); err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	defer ret.Release()

	ref, err := r.toRef(ret)
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	return ref
}

// CreateFunctionFromHostFunction returns a script function named after
// name that calls fn. The function cannot be used as a constructor.
func (r *Runtime) CreateFunctionFromHostFunction(name jsi.PropNameID, paramCount int, fn jsi.HostFunction) (jsi.Function, error) {
	if fn == nil {
		return jsi.Function{}, errors.NilPointer(errors.PhaseHost, nil, "host function")
	}

	p := &hostFunctionProxy{fn: fn, rt: r}
	ref, code := r.ctx.CreateNamedFunction(r.PropNameUTF8(name), paramCount, hostFunctionCall, p)
	if code != engine.NoError {
		return jsi.Function{}, r.check("CreateNamedFunction", code)
	}
	f := jsi.Function{Object: r.makeObject(ref)}

	if code := r.ctx.SetObjectBeforeCollectCallback(ref, p, releaseHostFunction); code != engine.NoError {
		f.Release()
		return jsi.Function{}, r.check("SetObjectBeforeCollectCallback", code)
	}
	r.hostFuncs.Add(1)

	if err := r.markHostFunction(ref); err != nil {
		f.Release()
		return jsi.Function{}, err
	}
	return f, nil
}

func (r *Runtime) markHostFunction(fn engine.Ref) error {
	id, code := r.ctx.CreatePropertyID(functionIsHostFunctionPropName)
	if code != engine.NoError {
		return r.check("CreatePropertyID", code)
	}
	defer r.release(id)
	yes, code := r.ctx.BoolToBoolean(true)
	if code != engine.NoError {
		return r.check("BoolToBoolean", code)
	}
	defer r.release(yes)
	return r.check("DefineDataProperty", r.ctx.DefineDataProperty(fn, id, yes, 0))
}

// GetHostFunction is not available: the engine cannot hand back the
// native callback behind a function.
func (r *Runtime) GetHostFunction(jsi.Function) (jsi.HostFunction, error) {
	return nil, errors.Unsupported(errors.PhaseHost, "GetHostFunction")
}

func (r *Runtime) IsHostFunction(f jsi.Function) bool {
	return r.markerSet(r.ref(f.Pointer, "function"), functionIsHostFunctionPropName)
}

// Call invokes f with this and args. A script exception is returned as a
// *jsi.JSError.
func (r *Runtime) Call(f jsi.Function, this jsi.Value, args ...jsi.Value) (jsi.Value, error) {
	return r.invoke(f, this, args, false)
}

// CallAsConstructor invokes f with new.
func (r *Runtime) CallAsConstructor(f jsi.Function, args ...jsi.Value) (jsi.Value, error) {
	return r.invoke(f, jsi.Undefined(), args, true)
}

func (r *Runtime) invoke(f jsi.Function, this jsi.Value, args []jsi.Value, construct bool) (jsi.Value, error) {
	fn := r.ref(f.Pointer, "function")

	var inline [inlineArgs + 1]engine.Ref
	refs := inline[:0]
	if len(args)+1 > len(inline) {
		refs = make([]engine.Ref, 0, len(args)+1)
	}

	thisRef, err := r.toRef(this)
	if err != nil {
		return jsi.Undefined(), err
	}
	refs = append(refs, thisRef)
	refs, err = r.toRefs(refs, args)
	if err != nil {
		return jsi.Undefined(), err
	}
	defer r.releaseAll(refs)

	var (
		ret  engine.Ref
		code engine.ErrorCode
		call = "CallFunction"
	)
	if construct {
		call = "ConstructObject"
		ret, code = r.ctx.ConstructObject(fn, refs)
	} else {
		ret, code = r.ctx.CallFunction(fn, refs)
	}
	if code != engine.NoError {
		return jsi.Undefined(), r.check(call, code)
	}
	return r.toValue(ret)
}

// isJSError reports whether err carries a script exception.
func isJSError(err error) bool {
	var jsErr *jsi.JSError
	return stderrors.As(err, &jsErr)
}
