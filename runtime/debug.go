package runtime

import (
	"github.com/wippyai/jsi-runtime/debugger"
	"github.com/wippyai/jsi-runtime/engine"
)

// debugBackend serves inspector requests from the runtime's context. It
// is only called from ProcessCommandQueue on the owning goroutine.
type debugBackend struct {
	r *Runtime
}

func (b debugBackend) Evaluate(expr string) (debugger.EvalResult, error) {
	ctx := b.r.ctx
	ref, code := ctx.Evaluate(expr)
	if code == engine.NoError {
		defer b.r.release(ref)
		return debugger.EvalResult{Result: b.remoteObject(ref)}, nil
	}

	if pending, _ := ctx.HasException(); !pending {
		return debugger.EvalResult{}, b.r.check("Evaluate", code)
	}
	ex, code := ctx.GetAndClearException()
	if code != engine.NoError {
		return debugger.EvalResult{}, b.r.check("GetAndClearException", code)
	}
	defer b.r.release(ex)
	return debugger.EvalResult{Result: b.remoteObject(ex), Exception: true}, nil
}

func (b debugBackend) HeapUsage() (used, total uint64) {
	used = b.r.rt.MemoryUsage()
	total = b.r.rt.MemoryLimit()
	if total == 0 {
		total = used
	}
	return used, total
}

// remoteObject describes a borrowed ref.
func (b debugBackend) remoteObject(ref engine.Ref) debugger.RemoteObject {
	ctx := b.r.ctx
	typ, code := ctx.GetValueType(ref)
	if code != engine.NoError {
		return debugger.RemoteObject{Type: "undefined"}
	}

	obj := debugger.RemoteObject{Description: b.describe(ref)}
	switch typ {
	case engine.ValueUndefined:
		obj.Type, obj.Description = "undefined", ""
	case engine.ValueNull:
		obj.Type, obj.Subtype, obj.Description = "object", "null", ""
	case engine.ValueBoolean:
		obj.Type = "boolean"
		obj.Value, _ = ctx.BooleanToBool(ref)
	case engine.ValueNumber:
		obj.Type = "number"
		obj.Value, _ = ctx.NumberToDouble(ref)
	case engine.ValueString:
		obj.Type = "string"
		obj.Value, _ = ctx.StringToUTF8(ref)
	case engine.ValueSymbol:
		obj.Type = "symbol"
	case engine.ValueFunction:
		obj.Type = "function"
	case engine.ValueError:
		obj.Type, obj.Subtype = "object", "error"
	case engine.ValueArray:
		obj.Type, obj.Subtype = "object", "array"
	case engine.ValueArrayBuffer:
		obj.Type, obj.Subtype = "object", "arraybuffer"
	case engine.ValueTypedArray:
		obj.Type, obj.Subtype = "object", "typedarray"
	case engine.ValueDataView:
		obj.Type, obj.Subtype = "object", "dataview"
	default:
		obj.Type = "object"
	}
	return obj
}

func (b debugBackend) describe(ref engine.Ref) string {
	ctx := b.r.ctx
	if typ, _ := ctx.GetValueType(ref); typ == engine.ValueSymbol {
		s, _ := ctx.SymbolToString(ref)
		return s
	}
	s, code := ctx.ConvertValueToString(ref)
	if code != engine.NoError {
		if ex, code := ctx.GetAndClearException(); code == engine.NoError {
			b.r.release(ex)
		}
		return ""
	}
	defer b.r.release(s)
	text, _ := ctx.StringToUTF8(s)
	return text
}
