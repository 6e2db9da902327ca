package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/jsi"
)

// CreateWeakObject returns a weak reference to o. Without engine weak
// references the WeakObject holds o strongly.
func (r *Runtime) CreateWeakObject(o jsi.Object) jsi.WeakObject {
	ref := r.ref(o.Pointer, "object")

	if !r.assumptions.SupportsNativeWeakRefs {
		return jsi.WeakObject{Pointer: jsi.MakePointer(&weakRefValue{h: retain(r.ctx, ref), strong: true})}
	}

	w, code := r.ctx.CreateWeakReference(ref)
	if code != engine.NoError {
		r.logger.Warn("CreateWeakReference failed, holding object strongly", zap.Stringer("code", code))
		return jsi.WeakObject{Pointer: jsi.MakePointer(&weakRefValue{h: retain(r.ctx, ref), strong: true})}
	}
	return jsi.WeakObject{Pointer: jsi.MakePointer(&weakRefValue{h: adopt(r.ctx, w)})}
}

// LockWeakObject returns the referent of w, or undefined once it has been
// collected.
func (r *Runtime) LockWeakObject(w jsi.WeakObject) jsi.Value {
	pv := w.PointerValue()
	ref := r.ref(w.Pointer, "weak object")

	if wv, ok := pv.(*weakRefValue); ok && wv.strong {
		return jsi.ObjectValue(jsi.Object{Pointer: jsi.MakePointer(&objectValue{h: retain(r.ctx, ref)})})
	}

	target, code := r.ctx.GetWeakReferenceValue(ref)
	if code != engine.NoError {
		r.failed("GetWeakReferenceValue", code)
		return jsi.Undefined()
	}
	v, err := r.toValue(target)
	if err != nil {
		r.logger.Debug("weak referent conversion failed", zap.Error(err))
		return jsi.Undefined()
	}
	return v
}
