package engine

import (
	"strings"
	"testing"
)

func TestMemory_Limit(t *testing.T) {
	rt, c := newTestContext(t)

	must(t, rt.SetMemoryLimit(256))
	var failures int
	must(t, rt.SetMemoryAllocationCallback(nil, func(_ any, ev AllocationEvent, _ uint64) bool {
		if ev == AllocationFailure {
			failures++
		}
		return true
	}))

	if _, code := c.CreateString(strings.Repeat("x", 1024)); code != ErrorOutOfMemory {
		t.Fatalf("CreateString over limit = %v, want ErrorOutOfMemory", code)
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}

	ref := mustRef(t)(c.CreateString("small"))
	used := rt.MemoryUsage()
	if used == 0 {
		t.Fatal("usage should be charged")
	}
	c.Release(ref)
	if rt.MemoryUsage() != 0 {
		t.Errorf("usage after release = %d, want 0", rt.MemoryUsage())
	}
}

func TestMemory_CallbackDenies(t *testing.T) {
	rt, c := newTestContext(t)

	var events []AllocationEvent
	must(t, rt.SetMemoryAllocationCallback("state", func(state any, ev AllocationEvent, _ uint64) bool {
		if state != "state" {
			t.Errorf("state = %v", state)
		}
		events = append(events, ev)
		return ev != AllocationRequest
	}))

	if _, code := c.CreateObject(); code != ErrorOutOfMemory {
		t.Fatalf("CreateObject = %v, want ErrorOutOfMemory", code)
	}
	if len(events) != 2 || events[0] != AllocationRequest || events[1] != AllocationFailure {
		t.Errorf("events = %v", events)
	}
	if rt.MemoryUsage() != 0 {
		t.Errorf("denied allocation still charged: %d", rt.MemoryUsage())
	}

	must(t, rt.SetMemoryAllocationCallback(nil, nil))
	mustRef(t)(c.CreateObject())
}

func TestMemory_FreeEvents(t *testing.T) {
	rt, c := newTestContext(t)

	var allocated, freed uint64
	must(t, rt.SetMemoryAllocationCallback(nil, func(_ any, ev AllocationEvent, size uint64) bool {
		switch ev {
		case AllocationRequest:
			allocated += size
		case AllocationFree:
			freed += size
		}
		return true
	}))

	obj := mustRef(t)(c.CreateObject())
	arr := mustRef(t)(c.CreateArray(4))
	c.Release(obj)
	c.Release(arr)

	if allocated != objectSize*2+4*arraySlotSize {
		t.Errorf("allocated = %d", allocated)
	}
	if freed != allocated {
		t.Errorf("freed = %d, want %d", freed, allocated)
	}
}

func TestAllocationEvent_String(t *testing.T) {
	if AllocationFailure.String() != "failure" || AllocationEvent(9).String() != "unknown" {
		t.Error("unexpected AllocationEvent names")
	}
	if ErrorOutOfMemory.String() != "ErrorOutOfMemory" || !ErrorScriptCompile.IsScriptError() {
		t.Error("unexpected ErrorCode helpers")
	}
	if ErrorCode(999).String() != "ErrorCode(999)" {
		t.Errorf("ErrorCode(999).String() = %q", ErrorCode(999).String())
	}
}
