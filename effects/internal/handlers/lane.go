package handlers

import (
	"sync"
)

// lane is an unbounded FIFO feeding one worker goroutine.
//
// Enqueue never blocks, so a handler may dispatch onto its own lane without
// deadlocking. signal has capacity 1 and coalesces wake-ups.
type lane[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

func newLane[T any](capacity int) *lane[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &lane[T]{
		items:  make([]T, 0, capacity),
		signal: make(chan struct{}, 1),
	}
}

func (l *lane[T]) enqueue(msg T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.items = append(l.items, msg)
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// takeAll removes and returns every queued item.
func (l *lane[T]) takeAll() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return nil
	}
	items := l.items
	l.items = make([]T, 0, cap(items))
	return items
}

func (l *lane[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *lane[T]) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.items = nil
}
