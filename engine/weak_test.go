package engine

import (
	"runtime"
	"testing"
	"time"
)

func TestWeakReference_Live(t *testing.T) {
	_, c := newTestContext(t)

	obj := mustRef(t)(c.CreateObject())
	w := mustRef(t)(c.CreateWeakReference(obj))

	got := mustRef(t)(c.GetWeakReferenceValue(w))
	if eq, _ := c.StrictEquals(got, obj); !eq {
		t.Error("live weak reference should return its target")
	}

	if _, code := c.GetWeakReferenceValue(obj); code != ErrorInvalidArgument {
		t.Errorf("GetWeakReferenceValue(value ref) = %v", code)
	}
	if _, code := c.GetValueType(w); code != ErrorInvalidArgument {
		t.Errorf("GetValueType(weak ref) = %v", code)
	}
}

func TestWeakReference_Primitive(t *testing.T) {
	_, c := newTestContext(t)

	s := mustRef(t)(c.CreateString("kept"))
	w := mustRef(t)(c.CreateWeakReference(s))
	c.Release(s)
	runtime.GC()

	got := mustRef(t)(c.GetWeakReferenceValue(w))
	if v := toString(t, c, got); v != "kept" {
		t.Errorf("weak primitive = %q", v)
	}
}

func TestWeakReference_Collected(t *testing.T) {
	_, c := newTestContext(t)

	obj := mustRef(t)(c.CreateObject())
	w := mustRef(t)(c.CreateWeakReference(obj))
	c.Release(obj)

	for range 200 {
		runtime.GC()
		got := mustRef(t)(c.GetWeakReferenceValue(w))
		typ, _ := c.GetValueType(got)
		c.Release(got)
		if typ == ValueUndefined {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("weak reference still resolves after its target was released")
}
