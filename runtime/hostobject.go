package runtime

import (
	stderrors "errors"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

const (
	proxyIsHostObjectPropName        = "$$ProxyIsHostObject$$"
	proxyGetHostObjectTargetPropName = "$$ProxyGetHostObjectTarget$$"
	functionIsHostFunctionPropName   = "$$FunctionIsHostFunction$$"
)

// hostObjectProxy is the external data of a host object's proxy target.
type hostObjectProxy struct {
	host jsi.HostObject
	rt   *Runtime
}

func releaseHostObject(state any) {
	state.(*hostObjectProxy).rt.hostObjects.Add(-1)
}

// CreateHostObject returns a script object whose property access is
// served by h.
func (r *Runtime) CreateHostObject(h jsi.HostObject) (jsi.Object, error) {
	if h == nil {
		return jsi.Object{}, errors.NilPointer(errors.PhaseHost, nil, "host object")
	}

	p := &hostObjectProxy{host: h, rt: r}
	target, code := r.ctx.CreateExternalObject(p)
	if code != engine.NoError {
		return jsi.Object{}, r.check("CreateExternalObject", code)
	}
	defer r.release(target)

	if code := r.ctx.SetObjectBeforeCollectCallback(target, p, releaseHostObject); code != engine.NoError {
		return jsi.Object{}, r.check("SetObjectBeforeCollectCallback", code)
	}
	r.hostObjects.Add(1)

	proxy, err := r.proxies.create(target)
	if err != nil {
		return jsi.Object{}, err
	}
	return r.makeObject(proxy), nil
}

// GetHostObject returns the HostObject behind o.
func (r *Runtime) GetHostObject(o jsi.Object) (jsi.HostObject, error) {
	if !r.IsHostObject(o) {
		return nil, errors.InvalidInput(errors.PhaseHost, "getHostObject() can only be called with HostObjects.")
	}
	target, err := r.getNamed(r.ref(o.Pointer, "object"), proxyGetHostObjectTargetPropName)
	if err != nil {
		return nil, err
	}
	defer r.release(target)
	return r.unwrapHost(target).host, nil
}

func (r *Runtime) IsHostObject(o jsi.Object) bool {
	return r.markerSet(r.ref(o.Pointer, "object"), proxyIsHostObjectPropName)
}

// markerSet reports whether obj[name] is true.
func (r *Runtime) markerSet(obj engine.Ref, name string) bool {
	v, err := r.getNamed(obj, name)
	if err != nil {
		return false
	}
	defer r.release(v)
	if typ, _ := r.ctx.GetValueType(v); typ != engine.ValueBoolean {
		return false
	}
	b, _ := r.ctx.BooleanToBool(v)
	return b
}

// unwrapHost returns the proxy stored on a host object target. A target
// without one is a broken invariant.
func (r *Runtime) unwrapHost(target engine.Ref) *hostObjectProxy {
	data, code := r.ctx.GetExternalData(target)
	if code != engine.NoError {
		errors.Fatal(errors.PhaseHost, "host object target has no external data: %s", code)
	}
	p, ok := data.(*hostObjectProxy)
	if !ok {
		errors.Fatal(errors.PhaseHost, "host object target holds %T", data)
	}
	return p
}

// borrowPropNameID wraps a property id the engine lends for a trap.
func (r *Runtime) borrowPropNameID(id engine.Ref) jsi.PropNameID {
	return jsi.PropNameID{Pointer: jsi.MakePointer(&propNameValue{h: retain(r.ctx, id)})}
}

// trapName returns the string name of a property id; ok is false for
// symbol keys, which host objects do not see.
func (r *Runtime) trapName(prop engine.Ref) (name string, ok bool, err error) {
	name, code := r.ctx.GetPropertyNameFromID(prop)
	switch code {
	case engine.NoError:
		return name, true, nil
	case engine.ErrorPropertyNotString:
		return "", false, nil
	default:
		return "", false, r.check("GetPropertyNameFromID", code)
	}
}

// hostGet serves the get trap. target and prop are borrowed; the result
// is owned by the caller. Failures are left pending.
func (r *Runtime) hostGet(target, prop engine.Ref) engine.Ref {
	name, ok, err := r.trapName(prop)
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	if !ok {
		return engine.InvalidRef
	}

	switch name {
	case proxyIsHostObjectPropName:
		ref, code := r.ctx.BoolToBoolean(true)
		if code != engine.NoError {
			r.throwError(r.check("BoolToBoolean", code))
			return engine.InvalidRef
		}
		return ref
	case proxyGetHostObjectTargetPropName:
		if _, code := r.ctx.AddRef(target); code != engine.NoError {
			r.throwError(r.check("AddRef", code))
			return engine.InvalidRef
		}
		return target
	}

	p := r.unwrapHost(target)
	id := r.borrowPropNameID(prop)
	defer id.Release()

	var v jsi.Value
	if err := callHost(func() (err error) {
		v, err = p.host.Get(r, id)
		return err
	}); err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	defer v.Release()

	ref, err := r.toRef(v)
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}
	return ref
}

// hostSet serves the set trap. It reports false with an exception
// pending when the write failed.
func (r *Runtime) hostSet(target, prop, value engine.Ref) bool {
	name, ok, err := r.trapName(prop)
	if err != nil {
		r.throwError(err)
		return false
	}
	if !ok {
		return false
	}

	if name == proxyIsHostObjectPropName || name == proxyGetHostObjectTargetPropName {
		r.throwError(hostException(name + " is a reserved property and must not be changed."))
		return false
	}

	p := r.unwrapHost(target)
	id := r.borrowPropNameID(prop)
	defer id.Release()
	v, err := r.borrowValue(value)
	if err != nil {
		r.throwError(err)
		return false
	}
	defer v.Release()

	if err := callHost(func() error { return p.host.Set(r, id, v) }); err != nil {
		r.throwError(err)
		return false
	}
	return true
}

// hostNames returns the host's property names, deduplicated and sorted.
func (r *Runtime) hostNames(p *hostObjectProxy) ([]string, error) {
	var ids []jsi.PropNameID
	if err := callHost(func() (err error) {
		ids, err = p.host.PropertyNames(r)
		return err
	}); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, r.PropNameUTF8(id))
		id.Release()
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names, nil
}

// hostOwnKeys serves the ownKeys trap with an owned array of names.
func (r *Runtime) hostOwnKeys(target engine.Ref) engine.Ref {
	names, err := r.hostNames(r.unwrapHost(target))
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef
	}

	arr, code := r.ctx.CreateArray(uint32(len(names)))
	if code != engine.NoError {
		r.throwError(r.check("CreateArray", code))
		return engine.InvalidRef
	}
	for i, name := range names {
		s, code := r.ctx.CreateString(name)
		if code == engine.NoError {
			code = r.ctx.SetIndexedProperty(arr, uint32(i), s)
			r.release(s)
		}
		if code != engine.NoError {
			r.release(arr)
			r.throwError(r.check("SetIndexedProperty", code))
			return engine.InvalidRef
		}
	}
	return arr
}

// hostDescriptor serves getOwnPropertyDescriptor. Listed names are own,
// enumerable data properties whose value comes from Get.
func (r *Runtime) hostDescriptor(target, prop engine.Ref) (engine.Ref, bool) {
	name, ok, err := r.trapName(prop)
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef, false
	}
	if !ok || name == proxyIsHostObjectPropName || name == proxyGetHostObjectTargetPropName {
		return engine.InvalidRef, false
	}

	names, err := r.hostNames(r.unwrapHost(target))
	if err != nil {
		r.throwError(err)
		return engine.InvalidRef, false
	}
	if i := sort.SearchStrings(names, name); i == len(names) || names[i] != name {
		return engine.InvalidRef, false
	}

	v := r.hostGet(target, prop)
	if pending, _ := r.ctx.HasException(); pending {
		r.release(v)
		return engine.InvalidRef, false
	}
	return v, true
}

// throwError makes err the pending script exception. A *jsi.JSError
// rethrows its value, which the runtime takes over.
func (r *Runtime) throwError(err error) {
	var jsErr *jsi.JSError
	if stderrors.As(err, &jsErr) {
		ref, convErr := r.toRef(jsErr.Value())
		jsErr.Release()
		if convErr == nil {
			r.ctx.SetException(ref)
			r.release(ref)
			return
		}
		err = convErr
	}
	r.throwMessage(hostExceptionPrefix + err.Error())
}

func (r *Runtime) throwMessage(msg string) {
	s, code := r.ctx.CreateString(msg)
	if code != engine.NoError {
		r.logger.Error("cannot raise host exception", zap.String("message", msg), zap.Stringer("code", code))
		return
	}
	defer r.release(s)
	e, code := r.ctx.CreateError(engine.ErrorClassError, s)
	if code != engine.NoError {
		r.logger.Error("cannot raise host exception", zap.String("message", msg), zap.Stringer("code", code))
		return
	}
	defer r.release(e)
	r.ctx.SetException(e)
}
