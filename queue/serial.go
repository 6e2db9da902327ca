// Package queue provides the script task queue used to hand work to the
// goroutine that owns a runtime.
package queue

import (
	"sync"

	"go.uber.org/zap"
)

// Serial is a FIFO task queue. Tasks may be posted from any goroutine and
// run on whichever goroutine calls Drain or RunOne.
type Serial struct {
	notify chan struct{}
	tasks  []func()
	mu     sync.Mutex
	closed bool
}

// NewSerial creates an empty queue.
func NewSerial() *Serial {
	return &Serial{notify: make(chan struct{}, 1)}
}

// RunOnQueue appends task. Tasks posted after Close are dropped.
func (q *Serial) RunOnQueue(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		Logger().Debug("task dropped on closed queue")
		return
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// RunOne runs the oldest task and reports whether there was one.
func (q *Serial) RunOne() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	task()
	return true
}

// Drain runs tasks until the queue is empty, including tasks posted while
// draining. It returns the number of tasks run.
func (q *Serial) Drain() int {
	n := 0
	for q.RunOne() {
		n++
	}
	if n > 0 {
		Logger().Debug("queue drained", zap.Int("tasks", n))
	}
	return n
}

// Len returns the number of pending tasks.
func (q *Serial) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Ready is signalled after a task is posted to an idle queue.
func (q *Serial) Ready() <-chan struct{} {
	return q.notify
}

// Close discards pending tasks and rejects new ones.
func (q *Serial) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.tasks = nil
}
