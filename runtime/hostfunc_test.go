package runtime

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

func hostFunction(t *testing.T, r *Runtime, name string, params int, fn jsi.HostFunction) jsi.Function {
	t.Helper()
	id := r.CreatePropNameIDFromASCII(name)
	defer id.Release()
	f, err := r.CreateFunctionFromHostFunction(id, params, fn)
	if err != nil {
		t.Fatalf("CreateFunctionFromHostFunction: %v", err)
	}
	return f
}

func TestHostFunction_ReturnsArgument(t *testing.T) {
	r, _ := newTestRuntime(t)

	f := hostFunction(t, r, "second", 2, func(_ jsi.Runtime, _ jsi.Value, args []jsi.Value) (jsi.Value, error) {
		return args[1].Clone(), nil
	})
	defer f.Release()
	setGlobal(t, r, "second", jsi.ObjectValue(f.Object))

	if got := evalString(t, r, `second(1, "x")`); got != "x" {
		t.Errorf(`second(1, "x") = %q`, got)
	}
	if got := evalString(t, r, "second.name + '/' + second.length"); got != "second/2" {
		t.Errorf("name/length = %q", got)
	}
}

func TestHostFunction_ManyArguments(t *testing.T) {
	r, _ := newTestRuntime(t)

	f := hostFunction(t, r, "sum", 0, func(_ jsi.Runtime, _ jsi.Value, args []jsi.Value) (jsi.Value, error) {
		var total float64
		for _, a := range args {
			n, err := a.AsNumber()
			if err != nil {
				return jsi.Undefined(), err
			}
			total += n
		}
		return jsi.Number(total), nil
	})
	defer f.Release()
	setGlobal(t, r, "sum", jsi.ObjectValue(f.Object))

	for _, tc := range []struct {
		src  string
		want float64
	}{
		{"sum()", 0},
		{"sum(1,2,3,4,5,6,7,8)", 36},
		{"sum(1,2,3,4,5,6,7,8,9)", 45},
		{"sum(1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16)", 136},
	} {
		if got := evalNumber(t, r, tc.src); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestHostFunction_ReceivesThis(t *testing.T) {
	r, _ := newTestRuntime(t)

	f := hostFunction(t, r, "self", 0, func(rt jsi.Runtime, this jsi.Value, _ []jsi.Value) (jsi.Value, error) {
		o, err := this.AsObject()
		if err != nil {
			return jsi.Undefined(), err
		}
		return jsi.GetPropertyByName(rt, o, "tag")
	})
	defer f.Release()
	setGlobal(t, r, "self", jsi.ObjectValue(f.Object))

	if got := evalString(t, r, `({tag: "me", self: self}).self()`); got != "me" {
		t.Errorf("this.tag = %q", got)
	}
}

func TestHostFunction_Errors(t *testing.T) {
	r, _ := newTestRuntime(t)

	f := hostFunction(t, r, "fail", 1, func(rt jsi.Runtime, _ jsi.Value, args []jsi.Value) (jsi.Value, error) {
		mode, _ := rt.ToString(args[0])
		switch mode {
		case "go":
			return jsi.Undefined(), fmt.Errorf("plain failure")
		case "js":
			return jsi.Undefined(), jsi.NewJSErrorMessage(rt, "thrown value")
		case "wrapped":
			return jsi.Undefined(), fmt.Errorf("context: %w", jsi.NewJSErrorMessage(rt, "inner value"))
		default:
			panic(42)
		}
	})
	defer f.Release()
	setGlobal(t, r, "fail", jsi.ObjectValue(f.Object))

	catch := func(arg string) string {
		return evalString(t, r, `(function() { try { fail("`+arg+`"); return "no error" } catch (e) { return e instanceof Error ? e.message : "value:" + e } })()`)
	}
	if got := catch("go"); got != "Exception in HostFunction: plain failure" {
		t.Errorf("go error = %q", got)
	}
	if got := catch("js"); got != "value:thrown value" {
		t.Errorf("JSError = %q", got)
	}
	if got := catch("wrapped"); got != "value:inner value" {
		t.Errorf("wrapped JSError = %q", got)
	}
	if got := catch("panic"); got != "Exception in HostFunction: <unknown>" {
		t.Errorf("panic = %q", got)
	}
}

func TestHostFunction_FatalPanicsPropagate(t *testing.T) {
	err := callHost(func() error {
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		rec := recover()
		e, ok := rec.(*errors.Error)
		if !ok || e.Kind != errors.KindFatal {
			t.Errorf("recovered %v, want a fatal error", rec)
		}
	}()
	_ = callHost(func() error {
		panic(errors.New(errors.PhaseHost, errors.KindFatal).Detail("broken").Build())
	})
	t.Error("fatal panic was swallowed")
}

func TestHostFunction_Markers(t *testing.T) {
	r, _ := newTestRuntime(t)

	f := hostFunction(t, r, "noop", 0, func(jsi.Runtime, jsi.Value, []jsi.Value) (jsi.Value, error) {
		return jsi.Undefined(), nil
	})
	defer f.Release()
	if !r.IsHostFunction(f) {
		t.Error("IsHostFunction = false")
	}
	if r.LiveHostFunctions() < 1 {
		t.Errorf("LiveHostFunctions = %d", r.LiveHostFunctions())
	}

	v := eval(t, r, "(function() {})")
	defer v.Release()
	o, _ := v.AsObject()
	plain, _ := o.AsFunction(r)
	if r.IsHostFunction(plain) {
		t.Error("IsHostFunction(script function) = true")
	}

	if _, err := r.GetHostFunction(f); err == nil {
		t.Error("GetHostFunction succeeded")
	} else {
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindUnsupported {
			t.Errorf("GetHostFunction err = %v", err)
		}
	}

	setGlobal(t, r, "noop", jsi.ObjectValue(f.Object))
	msg := evalString(t, r, `(function() { try { new noop(); return "constructed" } catch (e) { return e.name } })()`)
	if msg != "TypeError" {
		t.Errorf("new noop() = %q, want TypeError", msg)
	}
}

func TestCall_FromNative(t *testing.T) {
	r, _ := newTestRuntime(t)

	v := eval(t, r, "(function(a, b) { return this.base + a + b })")
	defer v.Release()
	o, _ := v.AsObject()
	fn, _ := o.AsFunction(r)

	this := r.CreateObject()
	defer this.Release()
	if err := jsi.SetPropertyByName(r, this, "base", jsi.Number(100)); err != nil {
		t.Fatal(err)
	}

	res, err := r.Call(fn, jsi.ObjectValue(this), jsi.Number(1), jsi.Number(2))
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := res.AsNumber(); n != 103 {
		t.Errorf("Call = %v", n)
	}

	thrower := eval(t, r, "(function() { throw new RangeError('out') })")
	defer thrower.Release()
	to, _ := thrower.AsObject()
	tf, _ := to.AsFunction(r)
	_, err = r.Call(tf, jsi.Undefined())
	var jsErr *jsi.JSError
	if !stderrors.As(err, &jsErr) {
		t.Fatalf("err = %v, want *jsi.JSError", err)
	}
	defer jsErr.Release()
	if !strings.Contains(jsErr.Message(), "RangeError") {
		t.Errorf("message = %q", jsErr.Message())
	}
}

func TestCall_ManyArgumentsFromNative(t *testing.T) {
	r, _ := newTestRuntime(t)

	v := eval(t, r, "(function() { return arguments.length })")
	defer v.Release()
	o, _ := v.AsObject()
	fn, _ := o.AsFunction(r)

	args := make([]jsi.Value, 12)
	for i := range args {
		args[i] = jsi.Number(float64(i))
	}
	res, err := r.Call(fn, jsi.Undefined(), args...)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := res.AsNumber(); n != 12 {
		t.Errorf("arguments.length = %v", n)
	}
}
