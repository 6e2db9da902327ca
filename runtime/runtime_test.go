package runtime

import (
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
	"github.com/wippyai/jsi-runtime/queue"
)

func newTestRuntime(t *testing.T, configure ...func(*RuntimeArgs)) (*Runtime, *queue.Serial) {
	t.Helper()
	q := queue.NewSerial()
	args := DefaultArgs().WithQueue(q)
	for _, fn := range configure {
		fn(&args)
	}
	r, err := New(args)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return r, q
}

func eval(t *testing.T, r *Runtime, src string) jsi.Value {
	t.Helper()
	v, err := r.EvaluateScript(jsi.StringBuffer(src), "test.js")
	if err != nil {
		t.Fatalf("EvaluateScript(%q): %v", src, err)
	}
	return v
}

func evalNumber(t *testing.T, r *Runtime, src string) float64 {
	t.Helper()
	v := eval(t, r, src)
	n, err := v.AsNumber()
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	return n
}

func evalString(t *testing.T, r *Runtime, src string) string {
	t.Helper()
	v := eval(t, r, src)
	defer v.Release()
	s, err := r.ToString(v)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	return s
}

func setGlobal(t *testing.T, r *Runtime, name string, v jsi.Value) {
	t.Helper()
	g := r.Global()
	defer g.Release()
	if err := jsi.SetPropertyByName(r, g, name, v); err != nil {
		t.Fatalf("set global %s: %v", name, err)
	}
}

// expectFatal runs fn with a fail-fast hook that returns, so Fatal panics
// with its error, and returns that error.
func expectFatal(t *testing.T, fn func()) (fatal *errors.Error) {
	t.Helper()
	prev := errors.SetFailFast(func(*errors.Error) {})
	defer errors.SetFailFast(prev)

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected fatal error")
		}
		e, ok := rec.(*errors.Error)
		if !ok {
			panic(rec)
		}
		fatal = e
	}()
	fn()
	return nil
}

func TestNew_RequiresQueue(t *testing.T) {
	args := DefaultArgs()
	args.EnableNativePromiseSupport = true
	if _, err := New(args); err == nil {
		t.Fatal("New without queue should fail when promises are enabled")
	}
}

func TestRuntime_Describe(t *testing.T) {
	r, _ := newTestRuntime(t)
	if got := r.Description(); got != "GojaRuntime" {
		t.Errorf("Description = %q", got)
	}
	if r.IsInspectable() {
		t.Error("IsInspectable without debugging")
	}
	sig := r.Signature()
	if sig.Label != r.Description() || sig.Version == 0 {
		t.Errorf("Signature = %+v", sig)
	}

	named, _ := newTestRuntime(t, func(a *RuntimeArgs) { a.Description = "MyRuntime" })
	if got := named.Description(); got != "MyRuntime" {
		t.Errorf("Description = %q, want MyRuntime", got)
	}
}

func TestRuntime_CloseIsIdempotent(t *testing.T) {
	r, err := New(DefaultArgs())
	if err != nil {
		t.Fatal(err)
	}
	s := r.CreateString("kept past close")

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	s.Release()
}

func TestRuntime_TwoRuntimesOneGoroutine(t *testing.T) {
	a, _ := newTestRuntime(t)
	b, _ := newTestRuntime(t)

	if got := evalNumber(t, a, "var x = 1; x"); got != 1 {
		t.Errorf("a: %v", got)
	}
	if got := evalString(t, b, "typeof x"); got != "undefined" {
		t.Errorf("globals leak between runtimes: typeof x = %q", got)
	}
}

func TestRuntime_WrongGoroutineIsFatal(t *testing.T) {
	r, _ := newTestRuntime(t)

	prev := errors.SetFailFast(func(*errors.Error) {})
	defer errors.SetFailFast(prev)

	var fatal *errors.Error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if e, ok := recover().(*errors.Error); ok {
				fatal = e
			}
		}()
		r.CreateObject()
	}()
	wg.Wait()

	if fatal == nil {
		t.Fatal("CreateObject from another goroutine did not fail")
	}
	if fatal.Kind != errors.KindThreadAffinity {
		t.Errorf("kind = %s, want %s", fatal.Kind, errors.KindThreadAffinity)
	}
}

func TestRuntime_ScopesCollect(t *testing.T) {
	r, _ := newTestRuntime(t)

	outer := r.PushScope()
	inner := r.PushScope()
	if inner.Depth != outer.Depth+1 {
		t.Fatalf("depths %d, %d", outer.Depth, inner.Depth)
	}
	r.PopScope(inner)
	r.PopScope(outer)

	s := r.PushScope()
	expectFatal(t, func() { r.PopScope(&jsi.ScopeState{Depth: s.Depth + 1}) })
	r.PopScope(s)
}

type countingTracker struct {
	initial   uint64
	allocated uint64
	freed     uint64
	calls     int
}

func (c *countingTracker) Initialize(usage uint64) { c.initial = usage }
func (c *countingTracker) OnAllocation(n uint64)    { c.allocated += n; c.calls++ }
func (c *countingTracker) OnDeallocation(n uint64)  { c.freed += n }

func TestRuntime_MemoryTracker(t *testing.T) {
	tracker := &countingTracker{}
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) { a.MemoryTracker = tracker })

	for i := 0; i < 10; i++ {
		o := r.CreateObject()
		o.Release()
	}
	if tracker.calls == 0 || tracker.allocated == 0 {
		t.Fatalf("tracker saw no allocations: %+v", tracker)
	}
	if tracker.freed == 0 {
		t.Errorf("tracker saw no frees: %+v", tracker)
	}
	if r.MemoryUsage() < tracker.initial {
		t.Errorf("usage %d below initial %d", r.MemoryUsage(), tracker.initial)
	}
}

func TestRuntime_MemoryLimit(t *testing.T) {
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) {
		a.MemoryTracker = &countingTracker{}
		a.MemoryLimit = 1 << 30
	})
	if got := r.rt.MemoryLimit(); got != 1<<30 {
		t.Fatalf("MemoryLimit = %d", got)
	}

	r.rt.SetMemoryLimit(r.MemoryUsage() + 8)
	defer r.rt.SetMemoryLimit(0)

	_, err := r.CreateArray(4)
	if err == nil {
		t.Fatal("CreateArray over the limit succeeded")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindOutOfMemory {
		t.Errorf("err = %v, want out of memory", err)
	}
}

func TestRuntime_Console(t *testing.T) {
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) { a.EnableConsole = true })
	if got := evalString(t, r, "typeof console.log"); got != "function" {
		t.Errorf("typeof console.log = %q", got)
	}
	eval(t, r, `console.log("hello from script")`)
}

func TestRuntime_JITOff(t *testing.T) {
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) { a.EnableJIT = false })
	if got := evalNumber(t, r, "6*7"); got != 42 {
		t.Errorf("6*7 = %v", got)
	}
}

func TestRuntime_ScriptErrorIsJSError(t *testing.T) {
	r, _ := newTestRuntime(t)
	_, err := r.EvaluateScript(jsi.StringBuffer(`throw new TypeError("nope")`), "throw.js")
	var jsErr *jsi.JSError
	if !stderrors.As(err, &jsErr) {
		t.Fatalf("err = %v, want *jsi.JSError", err)
	}
	defer jsErr.Release()
	if !strings.Contains(jsErr.Message(), "nope") {
		t.Errorf("message = %q", jsErr.Message())
	}

	if got := evalNumber(t, r, "1"); got != 1 {
		t.Errorf("runtime unusable after exception: %v", got)
	}
}

// collectUntil pops scopes, which run the collector, until done reports
// true or a few seconds pass. Cleanups run on their own goroutine, so a
// single collection is not enough to observe them.
func collectUntil(r *Runtime, done func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := r.PushScope()
		r.PopScope(s)
		if done() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return done()
}
