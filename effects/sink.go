package effects

import (
	"context"
	"sync"
)

// Sink subscribes to e with unlimited demand and calls onValue for every
// value and onCompletion once when e ends. Either callback may be nil.
//
// Cancelling the returned handle stops both callbacks; it is safe to cancel
// more than once.
func Sink[T any](ctx context.Context, e Effect[T], onValue func(T), onCompletion func(Completion)) Cancellable {
	k := &sink[T]{onValue: onValue, onCompletion: onCompletion}
	e.Subscribe(ctx, k)
	return k
}

type sink[T any] struct {
	onValue      func(T)
	onCompletion func(Completion)

	mu        sync.Mutex
	upstream  Subscription
	cancelled bool
	done      bool
}

var _ Subscriber[int] = (*sink[int])(nil)

func (k *sink[T]) ReceiveSubscription(up Subscription) {
	k.mu.Lock()
	if k.cancelled || k.done || k.upstream != nil {
		k.mu.Unlock()
		up.Cancel()
		return
	}
	k.upstream = up
	k.mu.Unlock()
	up.Request(Unlimited)
}

func (k *sink[T]) Receive(v T) Demand {
	k.mu.Lock()
	stopped := k.cancelled || k.done
	k.mu.Unlock()
	if !stopped && k.onValue != nil {
		k.onValue(v)
	}
	return 0
}

func (k *sink[T]) ReceiveCompletion(c Completion) {
	k.mu.Lock()
	if k.cancelled || k.done {
		k.mu.Unlock()
		return
	}
	k.done = true
	k.upstream = nil
	k.mu.Unlock()
	if k.onCompletion != nil {
		k.onCompletion(c)
	}
}

func (k *sink[T]) Cancel() {
	k.mu.Lock()
	if k.cancelled || k.done {
		k.mu.Unlock()
		return
	}
	k.cancelled = true
	up := k.upstream
	k.upstream = nil
	k.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}
