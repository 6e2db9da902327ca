package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	val, refs, ok := b.Release(handle)
	if !ok {
		t.Fatal("Release failed")
	}
	if refs != 0 || val != "test value" {
		t.Fatalf("Expected final release of 'test value', got %v refs=%d", val, refs)
	}

	if _, ok = b.Get(handle); ok {
		t.Fatal("Expected Get to fail after final Release")
	}
}

func TestLocalBackend_RefCounting(t *testing.T) {
	b := NewLocalBackend()

	handle, _ := b.Create(1, 100)

	for want := uint32(2); want <= 4; want++ {
		refs, ok := b.Retain(handle)
		if !ok || refs != want {
			t.Fatalf("Retain = (%d, %v), want (%d, true)", refs, ok, want)
		}
	}

	for want := uint32(3); want >= 1; want-- {
		val, refs, ok := b.Release(handle)
		if !ok || refs != want || val != nil {
			t.Fatalf("Release = (%v, %d, %v), want (nil, %d, true)", val, refs, ok, want)
		}
	}

	if refs, _ := b.Refs(handle); refs != 1 {
		t.Fatalf("Refs = %d, want 1", refs)
	}

	if _, refs, ok := b.Release(handle); !ok || refs != 0 {
		t.Fatal("last Release should free the entry")
	}
	if _, _, ok := b.Release(handle); ok {
		t.Fatal("Release of freed handle should fail")
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(1, "first")
	b.Release(h1)

	h2, _ := b.Create(2, "second")
	if h2 != h1 {
		t.Fatalf("Expected freed handle %d to be reused, got %d", h1, h2)
	}

	kind, ok := b.Kind(h2)
	if !ok || kind != 2 {
		t.Fatalf("Kind = (%d, %v), want (2, true)", kind, ok)
	}
	if refs, _ := b.Refs(h2); refs != 1 {
		t.Fatalf("reused handle should start with one reference, got %d", refs)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()
	d := &dropCounter{}
	b.Create(1, d)

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop on Close, got %d calls", d.count)
	}

	_, err := b.Create(1, "after close")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h, err := b.Create(1, n)
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			b.Retain(h)
			b.Release(h)
			b.Release(h)
		}(i)
	}

	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected all entries released, got %d", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend()

	b.Create(1, "a")
	h, _ := b.Create(2, "b")
	b.Create(3, "c")
	b.Release(h)

	seen := map[Kind]any{}
	b.Each(func(h Handle, kind Kind, value any) bool {
		seen[kind] = value
		return true
	})

	if len(seen) != 2 || seen[1] != "a" || seen[3] != "c" {
		t.Fatalf("unexpected entries: %v", seen)
	}

	count := 0
	b.Each(func(Handle, Kind, any) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Each should stop early, visited %d", count)
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	if _, ok := b.Get(0); ok {
		t.Error("Get(0) should fail")
	}
	if _, ok := b.Get(999); ok {
		t.Error("Get(999) should fail")
	}
	if _, ok := b.Retain(0); ok {
		t.Error("Retain(0) should fail")
	}
	if _, _, ok := b.Release(999); ok {
		t.Error("Release(999) should fail")
	}
	if _, ok := b.Kind(999); ok {
		t.Error("Kind(999) should fail")
	}
}
