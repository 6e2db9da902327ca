package engine

import (
	"testing"
)

func newTestContext(t *testing.T) (*Runtime, *Context) {
	t.Helper()
	return newTestContextWith(t, AttributeNone)
}

func newTestContextWith(t *testing.T, attrs Attributes) (*Runtime, *Context) {
	t.Helper()
	rt, code := CreateRuntime(attrs)
	if code != NoError {
		t.Fatalf("CreateRuntime: %v", code)
	}
	c, code := rt.CreateContext()
	if code != NoError {
		t.Fatalf("CreateContext: %v", code)
	}
	if code := rt.SetCurrentContext(c); code != NoError {
		t.Fatalf("SetCurrentContext: %v", code)
	}
	t.Cleanup(func() {
		rt.SetCurrentContext(nil)
		c.Close()
		rt.Dispose()
	})
	return rt, c
}

func must(t *testing.T, code ErrorCode) {
	t.Helper()
	if code != NoError {
		t.Fatalf("unexpected error code %v", code)
	}
}

// mustRef returns a checker for a (Ref, ErrorCode) pair, so calls read
// mustRef(t)(c.CreateObject()).
func mustRef(t *testing.T) func(Ref, ErrorCode) Ref {
	t.Helper()
	return func(ref Ref, code ErrorCode) Ref {
		t.Helper()
		must(t, code)
		if ref == InvalidRef {
			t.Fatal("got InvalidRef")
		}
		return ref
	}
}

func run(t *testing.T, c *Context, src string) Ref {
	t.Helper()
	ref, code := c.Run(src, "test.js")
	if code != NoError {
		if ex, c2 := c.GetAndClearException(); c2 == NoError {
			s, _ := c.ConvertValueToString(ex)
			msg, _ := c.StringToUTF8(s)
			t.Fatalf("Run(%q): %v: %s", src, code, msg)
		}
		t.Fatalf("Run(%q): %v", src, code)
	}
	return ref
}

func propID(t *testing.T, c *Context, name string) Ref {
	t.Helper()
	return mustRef(t)(c.CreatePropertyID(name))
}

func toString(t *testing.T, c *Context, ref Ref) string {
	t.Helper()
	s, code := c.StringToUTF8(ref)
	must(t, code)
	return s
}

func TestRuntime_ContextLifecycle(t *testing.T) {
	rt, code := CreateRuntime(AttributeNone)
	must(t, code)

	c, code := rt.CreateContext()
	must(t, code)

	if _, code := c.CreateObject(); code != ErrorNoCurrentContext {
		t.Errorf("CreateObject without current context = %v, want ErrorNoCurrentContext", code)
	}

	must(t, rt.SetCurrentContext(c))
	if rt.CurrentContext() != c {
		t.Fatal("CurrentContext mismatch")
	}

	if code := c.Close(); code != ErrorContextInUse {
		t.Errorf("Close while current = %v, want ErrorContextInUse", code)
	}
	if code := rt.Dispose(); code != ErrorRuntimeInUse {
		t.Errorf("Dispose while current = %v, want ErrorRuntimeInUse", code)
	}

	must(t, rt.SetCurrentContext(nil))
	must(t, c.Close())
	if code := c.Close(); code != ErrorInvalidContext {
		t.Errorf("second Close = %v, want ErrorInvalidContext", code)
	}
	must(t, rt.Dispose())
	if _, code := rt.CreateContext(); code == NoError {
		t.Error("CreateContext after Dispose should fail")
	}
}

func TestContext_WrongThread(t *testing.T) {
	rt, c := newTestContext(t)

	done := make(chan [2]ErrorCode)
	go func() {
		_, a := c.CreateObject()
		b := rt.SetCurrentContext(c)
		done <- [2]ErrorCode{a, b}
	}()
	got := <-done

	if got[0] != ErrorWrongThread {
		t.Errorf("CreateObject from other goroutine = %v, want ErrorWrongThread", got[0])
	}
	if got[1] != ErrorWrongThread {
		t.Errorf("SetCurrentContext from other goroutine = %v, want ErrorWrongThread", got[1])
	}
}

func TestContext_RefCounting(t *testing.T) {
	_, c := newTestContext(t)

	base := c.LiveRefs()
	obj := mustRef(t)(c.CreateObject())
	if n := c.RefCount(obj); n != 1 {
		t.Fatalf("RefCount = %d, want 1", n)
	}

	n, code := c.AddRef(obj)
	must(t, code)
	if n != 2 {
		t.Errorf("AddRef = %d, want 2", n)
	}

	n, code = c.Release(obj)
	must(t, code)
	if n != 1 {
		t.Errorf("Release = %d, want 1", n)
	}
	n, code = c.Release(obj)
	must(t, code)
	if n != 0 {
		t.Errorf("Release = %d, want 0", n)
	}

	if c.LiveRefs() != base {
		t.Errorf("LiveRefs = %d, want %d", c.LiveRefs(), base)
	}
	if _, code := c.Release(obj); code != ErrorInvalidArgument {
		t.Errorf("Release of freed ref = %v, want ErrorInvalidArgument", code)
	}
	if _, code := c.GetValueType(obj); code != ErrorInvalidArgument {
		t.Errorf("GetValueType of freed ref = %v, want ErrorInvalidArgument", code)
	}
}

func TestContext_ExceptionState(t *testing.T) {
	_, c := newTestContext(t)

	_, code := c.Run(`throw new TypeError("boom")`, "throw.js")
	if code != ErrorScriptException {
		t.Fatalf("Run = %v, want ErrorScriptException", code)
	}

	has, code := c.HasException()
	must(t, code)
	if !has {
		t.Fatal("exception should be pending")
	}

	if _, code := c.CreateObject(); code != ErrorInExceptionState {
		t.Errorf("CreateObject with pending exception = %v, want ErrorInExceptionState", code)
	}

	ex := mustRef(t)(c.GetAndClearException())
	msg := mustRef(t)(c.GetProperty(ex, propID(t, c, "message")))
	if got := toString(t, c, msg); got != "boom" {
		t.Errorf("message = %q, want boom", got)
	}

	if _, code := c.GetAndClearException(); code != ErrorInvalidArgument {
		t.Errorf("GetAndClearException without exception = %v", code)
	}

	mustRef(t)(c.CreateObject())
}

func TestContext_SyntaxError(t *testing.T) {
	_, c := newTestContext(t)

	if _, code := c.Run(`function (`, "bad.js"); code != ErrorScriptCompile {
		t.Fatalf("Run = %v, want ErrorScriptCompile", code)
	}
	ex := mustRef(t)(c.GetAndClearException())
	typ, code := c.GetValueType(ex)
	must(t, code)
	if !typ.IsObject() {
		t.Errorf("exception type = %v, want an object", typ)
	}
}

func TestContext_Exceptions(t *testing.T) {
	_, c := newTestContext(t)

	msg := mustRef(t)(c.CreateString("bad range"))
	errRef := mustRef(t)(c.CreateError(ErrorClassRange, msg))
	must(t, c.SetException(errRef))

	ex := mustRef(t)(c.GetAndClearException())
	eq, code := c.StrictEquals(ex, errRef)
	must(t, code)
	if !eq {
		t.Error("GetAndClearException should return the value passed to SetException")
	}

	name := mustRef(t)(c.GetProperty(ex, propID(t, c, "name")))
	if got := toString(t, c, name); got != "RangeError" {
		t.Errorf("name = %q, want RangeError", got)
	}

	num := mustRef(t)(c.DoubleToNumber(1))
	if _, code := c.CreateError(ErrorClassError, num); code != ErrorInvalidArgument {
		t.Errorf("CreateError with number message = %v", code)
	}
}

func TestContext_DisableEval(t *testing.T) {
	_, c := newTestContextWith(t, AttributeDisableEval)

	res := run(t, c, `typeof eval`)
	if got := toString(t, c, res); got != "undefined" {
		t.Errorf("typeof eval = %q, want undefined", got)
	}
}
