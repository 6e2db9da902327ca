package engine

import (
	"runtime"
	"testing"
)

func TestGoroutineID_MatchesStack(t *testing.T) {
	if got, want := goroutineID(), stackGoroutineID(); got != want || got <= 0 {
		t.Fatalf("goroutineID() = %d, runtime.Stack id = %d", got, want)
	}
}

func TestGoroutineID_DistinctPerGoroutine(t *testing.T) {
	mine := goroutineID()
	other := make(chan int64)
	go func() { other <- goroutineID() }()
	theirs := <-other
	if theirs <= 0 || theirs == mine {
		t.Fatalf("goroutine ids %d and %d should be positive and distinct", mine, theirs)
	}
}

func TestOwner_ForeignGoroutine(t *testing.T) {
	var o owner
	if !o.claim() {
		t.Fatal("first claim should succeed")
	}
	runtime.GC()
	if !o.held() || !o.claim() {
		t.Fatal("owner should still hold after GC")
	}

	type result struct{ claim, held bool }
	res := make(chan result)
	go func() { res <- result{claim: o.claim(), held: o.held()} }()
	if r := <-res; r.claim || r.held {
		t.Errorf("foreign goroutine: claim=%v held=%v, want false", r.claim, r.held)
	}
	if o.get() != goroutineID() {
		t.Errorf("get() = %d, want %d", o.get(), goroutineID())
	}
}
