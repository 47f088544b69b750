package effects

import (
	"context"
	"sync"
)

// ReceiveOn delivers the values and the completion of e through sched. All
// deliveries of one subscription use key, so they keep their order.
func ReceiveOn[T any](e Effect[T], sched Scheduler, key string) Effect[T] {
	return Effect[T]{subscribe: func(ctx context.Context, s Subscriber[T]) {
		e.Subscribe(ctx, &receiveOn[T]{downstream: s, sched: sched, key: key})
	}}
}

type receiveOn[T any] struct {
	downstream Subscriber[T]
	sched      Scheduler
	key        string

	mu       sync.Mutex
	upstream Subscription
}

func (r *receiveOn[T]) ReceiveSubscription(up Subscription) {
	r.mu.Lock()
	r.upstream = up
	r.mu.Unlock()
	r.downstream.ReceiveSubscription(up)
}

// Receive hands v to the scheduler. Extra demand returned by the downstream
// is requested from the upstream once the value was delivered.
func (r *receiveOn[T]) Receive(v T) Demand {
	r.sched.Schedule(r.key, func() {
		more := r.downstream.Receive(v)
		if more <= 0 {
			return
		}
		r.mu.Lock()
		up := r.upstream
		r.mu.Unlock()
		if up != nil {
			up.Request(more)
		}
	})
	return 0
}

func (r *receiveOn[T]) ReceiveCompletion(c Completion) {
	r.mu.Lock()
	r.upstream = nil
	r.mu.Unlock()
	r.sched.Schedule(r.key, func() {
		r.downstream.ReceiveCompletion(c)
	})
}
