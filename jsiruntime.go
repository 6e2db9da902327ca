package jsiruntime

// TaskQueue runs tasks on the goroutine that owns a runtime. RunOnQueue may
// be called from any goroutine; tasks run later in FIFO order.
type TaskQueue interface {
	RunOnQueue(task func())
}

// MemoryTracker observes engine memory. Initialize receives the usage at
// the moment tracking starts.
type MemoryTracker interface {
	Initialize(currentUsage uint64)
	OnAllocation(size uint64)
	OnDeallocation(size uint64)
}
