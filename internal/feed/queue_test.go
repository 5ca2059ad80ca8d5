package feed

import (
	"sync"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(4)
	q.Push(msg("a"))
	q.Push(msg("b"))

	for _, want := range []string{"a", "b"} {
		got, ok := q.Pop()
		if !ok || got.ID != want {
			t.Fatalf("expected %s, got %+v (%v)", want, got, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := NewQueue(2)

	if !q.Push(msg("a")) || !q.Push(msg("b")) {
		t.Fatalf("pushes below capacity must be kept")
	}
	if q.Push(msg("c")) {
		t.Fatalf("expected overflow to report a drop")
	}

	if q.Len() != 2 || q.Dropped() != 1 {
		t.Fatalf("unexpected len %d dropped %d", q.Len(), q.Dropped())
	}
	first, _ := q.Pop()
	if first.ID != "b" {
		t.Fatalf("expected oldest to be dropped, head is %s", first.ID)
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	if c := NewQueue(0).Cap(); c != DefaultQueueCapacity {
		t.Fatalf("expected %d, got %d", DefaultQueueCapacity, c)
	}
}

func TestQueueConcurrentPushPop(t *testing.T) {
	q := NewQueue(1000)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(msg("x"))
			}
		}()
	}
	wg.Wait()

	popped := 0
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		popped++
	}
	if popped != 400 {
		t.Fatalf("expected 400 messages, got %d", popped)
	}
}
