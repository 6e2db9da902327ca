package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// goroutineID returns the id of the calling goroutine. goid.Get reads the
// runtime g struct at a fixed offset, which drifts between Go releases, so
// it is only used when it agrees with the id printed by runtime.Stack.
var goroutineID = pickGoroutineID()

func pickGoroutineID() func() int64 {
	if fastIDAgrees() {
		return goid.Get
	}
	return stackGoroutineID
}

func stackGoroutineID() int64 {
	var buf [64]byte
	return goid.ExtractGID(buf[:runtime.Stack(buf[:], false)])
}

func fastIDAgrees() bool {
	check := func() bool {
		id := goid.Get()
		return id > 0 && id == stackGoroutineID()
	}
	if !check() {
		return false
	}
	done := make(chan bool)
	go func() { done <- check() }()
	return <-done
}

// owner records the goroutine a context is bound to.
type owner struct {
	id atomic.Int64
}

// claim binds to the calling goroutine if unbound and reports whether the
// caller is the owner.
func (o *owner) claim() bool {
	me := goroutineID()
	if o.id.CompareAndSwap(0, me) {
		return true
	}
	return o.id.Load() == me
}

// held reports whether the calling goroutine is the owner.
func (o *owner) held() bool {
	return o.id.Load() == goroutineID()
}

func (o *owner) get() int64 {
	return o.id.Load()
}
