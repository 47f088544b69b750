// Package scheduler provides effects.Scheduler implementations backed by
// worker goroutines.
package scheduler

import (
	"context"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/effects/internal/handlers"
	"go.uber.org/zap"
)

// Immediate runs every item on the calling goroutine.
var Immediate effects.Scheduler = immediate{}

type immediate struct{}

func (immediate) Schedule(_ string, fn func()) { fn() }

type job struct {
	key string
	fn  func()
}

func (j job) PartitionKey() string {
	return j.key
}

// Queue runs items on worker goroutines. With one worker every item runs in
// schedule order; with more, items are spread by the xxhash of their key and
// only items sharing a key keep their relative order.
type Queue struct {
	scope  *handlers.Scope[job]
	logger *zap.Logger
}

var _ effects.Scheduler = (*Queue)(nil)

// New starts a Queue with numWorkers workers. bufferSize is the initial
// capacity of each worker's backlog; backlogs grow as needed. The queue stops
// when ctx is cancelled or Close is called.
func New(
	ctx context.Context,
	bufferSize, numWorkers int,
	logger *zap.Logger,
) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	q := &Queue{logger: logger}

	var dispatcher handlers.WorkerDispatcher[job]
	if numWorkers <= 1 {
		dispatcher = handlers.NewSingleQueue(ctx, bufferSize, q.run)
	} else {
		dispatcher = handlers.NewPartitionedQueue(ctx, numWorkers, bufferSize, q.run)
	}
	q.scope = handlers.NewScope(dispatcher, logger, cancel)
	return q
}

// NewSerial starts a single-worker Queue.
func NewSerial(ctx context.Context, logger *zap.Logger) *Queue {
	return New(ctx, 1, 1, logger)
}

// Schedule queues fn. Items scheduled after Close are dropped.
func (q *Queue) Schedule(key string, fn func()) {
	if !q.scope.Dispatcher.Dispatch(job{key: key, fn: fn}) {
		q.logger.Warn("scheduler closed, dropping work", zap.String("key", key))
	}
}

// Pending reports the number of queued items not yet run.
func (q *Queue) Pending() int {
	return q.scope.Dispatcher.Pending()
}

// ID identifies the queue in logs.
func (q *Queue) ID() string {
	return q.scope.ID
}

// Close stops the workers. Queued items that have not started are dropped.
func (q *Queue) Close() {
	q.scope.Close()
}

func (q *Queue) run(_ context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic in scheduled work",
				zap.String("key", j.key),
				zap.Any("error", r),
			)
		}
	}()
	j.fn()
}
