package bridge

import (
	"sync"

	"github.com/gammazero/deque"
)

// queue is an unbounded FIFO safe for one producer and one consumer on
// different goroutines.
type queue[T any] struct {
	mu    sync.Mutex
	items *deque.Deque[T]
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{items: deque.New[T]()}
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.items.PushBack(v)
	q.mu.Unlock()
}

func (q *queue[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.items.PopFront(), true
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
