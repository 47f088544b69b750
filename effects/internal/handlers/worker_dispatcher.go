package handlers

import (
	"context"
	"sync"
)

// --- common interface ---

// WorkerDispatcher hands messages to worker goroutines. Messages that land on
// the same worker are handled one at a time in dispatch order.
type WorkerDispatcher[T any] interface {
	// Dispatch queues msg. It reports false once the dispatcher stopped.
	Dispatch(msg T) bool
	// Pending reports the number of queued messages not yet handled.
	Pending() int
}

func runLane[T any](ctx context.Context, l *lane[T], handleFn func(context.Context, T)) {
	defer l.close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.signal:
			for _, msg := range l.takeAll() {
				if ctx.Err() != nil {
					return
				}
				handleFn(ctx, msg)
			}
		}
	}
}

// --- single queue ---

type singleQueue[T any] struct {
	lane *lane[T]
}

var _ WorkerDispatcher[any] = singleQueue[any]{}

func (q singleQueue[T]) Dispatch(msg T) bool {
	return q.lane.enqueue(msg)
}

func (q singleQueue[T]) Pending() int {
	return q.lane.len()
}

// NewSingleQueue starts one worker. It stops when ctx is cancelled.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	l := newLane[T](bufferSize)
	ready := make(chan struct{})

	go func() {
		close(ready)
		runLane(ctx, l, handleFn)
	}()

	<-ready

	return singleQueue[T]{lane: l}
}

// --- partitioned queue ---

type partitionedQueue[T Partitionable] struct {
	lanes []*lane[T]
}

var _ WorkerDispatcher[Partitionable] = partitionedQueue[Partitionable]{}

func (pq partitionedQueue[T]) Dispatch(msg T) bool {
	idx := getIndexByHash(msg, len(pq.lanes))
	return pq.lanes[idx].enqueue(msg)
}

func (pq partitionedQueue[T]) Pending() int {
	n := 0
	for _, l := range pq.lanes {
		n += l.len()
	}
	return n
}

// NewPartitionedQueue starts numWorkers workers and routes every message to
// the worker selected by the hash of its partition key.
func NewPartitionedQueue[T Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	lanes := make([]*lane[T], numWorkers)
	ready := sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		ready.Add(1)
		l := newLane[T](bufferSize)
		go func() {
			ready.Done()
			runLane(ctx, l, handleFn)
		}()
		lanes[i] = l
	}
	ready.Wait()
	return partitionedQueue[T]{lanes: lanes}
}
