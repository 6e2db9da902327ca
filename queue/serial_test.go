package queue

import (
	"sync"
	"testing"
)

func TestSerial_FIFO(t *testing.T) {
	q := NewSerial()
	var got []int
	for i := 0; i < 5; i++ {
		q.RunOnQueue(func() { got = append(got, i) })
	}

	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}
	if n := q.Drain(); n != 5 {
		t.Fatalf("Drain ran %d tasks, want 5", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
}

func TestSerial_DrainRunsNestedPosts(t *testing.T) {
	q := NewSerial()
	var order []string
	q.RunOnQueue(func() {
		order = append(order, "outer")
		q.RunOnQueue(func() { order = append(order, "inner") })
	})

	if n := q.Drain(); n != 2 {
		t.Fatalf("Drain ran %d tasks, want 2", n)
	}
	if len(order) != 2 || order[1] != "inner" {
		t.Fatalf("order = %v", order)
	}
}

func TestSerial_ConcurrentPost(t *testing.T) {
	q := NewSerial()
	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.RunOnQueue(func() {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	select {
	case <-q.Ready():
	default:
		t.Fatal("Ready not signalled")
	}

	q.Drain()
	if count != 50 {
		t.Fatalf("count = %d, want 50", count)
	}
}

func TestSerial_Close(t *testing.T) {
	q := NewSerial()
	ran := false
	q.RunOnQueue(func() { ran = true })
	q.Close()
	q.RunOnQueue(func() { ran = true })

	if q.Drain() != 0 || ran {
		t.Fatal("tasks ran after Close")
	}
	if q.RunOne() {
		t.Fatal("RunOne on closed queue returned true")
	}
}
