package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

// toValue converts an owned engine ref. Pointer kinds keep the ref;
// primitives are read and the ref is released. InvalidRef is undefined.
func (r *Runtime) toValue(ref engine.Ref) (jsi.Value, error) {
	if ref == engine.InvalidRef {
		return jsi.Undefined(), nil
	}

	typ, code := r.ctx.GetValueType(ref)
	if code != engine.NoError {
		r.release(ref)
		return jsi.Undefined(), r.check("GetValueType", code)
	}

	switch typ {
	case engine.ValueUndefined:
		r.release(ref)
		return jsi.Undefined(), nil
	case engine.ValueNull:
		r.release(ref)
		return jsi.Null(), nil
	case engine.ValueNumber:
		n, code := r.ctx.NumberToDouble(ref)
		r.release(ref)
		if code != engine.NoError {
			return jsi.Undefined(), r.check("NumberToDouble", code)
		}
		return jsi.Number(n), nil
	case engine.ValueBoolean:
		b, code := r.ctx.BooleanToBool(ref)
		r.release(ref)
		if code != engine.NoError {
			return jsi.Undefined(), r.check("BooleanToBool", code)
		}
		return jsi.Bool(b), nil
	case engine.ValueString:
		s, err := r.stringOrEmpty(ref)
		if err != nil {
			return jsi.Undefined(), err
		}
		return jsi.StringValue(s), nil
	case engine.ValueSymbol:
		return jsi.SymbolValue(r.makeSymbol(ref)), nil
	case engine.ValueObject, engine.ValueFunction, engine.ValueError, engine.ValueArray,
		engine.ValueArrayBuffer, engine.ValueTypedArray, engine.ValueDataView:
		o, err := r.objectOrFresh(ref)
		if err != nil {
			return jsi.Undefined(), err
		}
		return jsi.ObjectValue(o), nil
	}

	errors.Fatal(errors.PhaseConvert, "unrecognized engine value type %s", typ)
	return jsi.Undefined(), nil
}

// borrowValue converts a ref the caller keeps.
func (r *Runtime) borrowValue(ref engine.Ref) (jsi.Value, error) {
	if ref == engine.InvalidRef {
		return jsi.Undefined(), nil
	}
	if _, code := r.ctx.AddRef(ref); code != engine.NoError {
		return jsi.Undefined(), r.check("AddRef", code)
	}
	return r.toValue(ref)
}

// toRef returns an owned engine ref for v.
func (r *Runtime) toRef(v jsi.Value) (engine.Ref, error) {
	var (
		ref  engine.Ref
		code engine.ErrorCode
		call string
	)

	switch v.Kind() {
	case jsi.KindUndefined:
		ref, code = r.ctx.GetUndefinedValue()
		call = "GetUndefinedValue"
	case jsi.KindNull:
		ref, code = r.ctx.GetNullValue()
		call = "GetNullValue"
	case jsi.KindBool:
		b, _ := v.AsBool()
		ref, code = r.ctx.BoolToBoolean(b)
		call = "BoolToBoolean"
	case jsi.KindNumber:
		n, _ := v.AsNumber()
		ref, code = r.ctx.DoubleToNumber(n)
		call = "DoubleToNumber"
	case jsi.KindSymbol, jsi.KindString, jsi.KindObject:
		ref = r.ref(v.Pointer(), v.Kind().String())
		_, code = r.ctx.AddRef(ref)
		call = "AddRef"
	default:
		errors.Fatal(errors.PhaseConvert, "unrecognized value kind %s", v.Kind())
	}

	if code != engine.NoError {
		return engine.InvalidRef, r.check(call, code)
	}
	return ref, nil
}

// toRefs converts vs, releasing what was converted on failure.
func (r *Runtime) toRefs(into []engine.Ref, vs []jsi.Value) ([]engine.Ref, error) {
	for _, v := range vs {
		ref, err := r.toRef(v)
		if err != nil {
			r.releaseAll(into)
			return nil, err
		}
		into = append(into, ref)
	}
	return into, nil
}

func (r *Runtime) release(ref engine.Ref) {
	if ref == engine.InvalidRef {
		return
	}
	if _, code := r.ctx.Release(ref); code == engine.ErrorWrongThread {
		r.wrongThread("Release")
	}
}

func (r *Runtime) releaseAll(refs []engine.Ref) {
	for _, ref := range refs {
		r.release(ref)
	}
}

// check maps a failed engine call to an error. A pending script exception
// becomes a *jsi.JSError carrying the thrown value.
func (r *Runtime) check(call string, code engine.ErrorCode) error {
	if code == engine.NoError {
		return nil
	}
	if code == engine.ErrorWrongThread {
		r.wrongThread(call)
	}

	if pending, _ := r.ctx.HasException(); pending {
		ex, exCode := r.ctx.GetAndClearException()
		if exCode == engine.NoError {
			v, err := r.toValue(ex)
			if err != nil {
				return err
			}
			return jsi.NewJSError(r, v)
		}
	}

	if code == engine.ErrorOutOfMemory {
		return errors.New(errors.PhaseEngine, errors.KindOutOfMemory).
			Call(call).
			Code(code.String()).
			Detail("engine memory limit %d reached", r.rt.MemoryLimit()).
			Build()
	}
	return errors.EngineCall(call, code.String())
}

// failed records an engine failure for methods that cannot report one.
func (r *Runtime) failed(call string, code engine.ErrorCode, fields ...zap.Field) {
	if code == engine.ErrorWrongThread {
		r.wrongThread(call)
	}
	r.logger.Debug(call+" failed", append(fields, zap.Stringer("code", code))...)
}

func (r *Runtime) wrongThread(call string) {
	errors.FatalError(errors.New(errors.PhaseEngine, errors.KindThreadAffinity).
		Call(call).
		Code(engine.ErrorWrongThread.String()).
		Detail("runtime owned by goroutine %d", r.ctx.Owner()).
		Build())
}
