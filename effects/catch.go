package effects

import (
	"context"
	"sync"
)

// CatchToEffect turns every value and a terminating failure of e into a value
// of type R. The resulting effect never fails, which is how failures are
// converted into ordinary actions before they reach a store.
func CatchToEffect[T, R any](e Effect[T], transform func(T, error) R) Effect[R] {
	return Effect[R]{subscribe: func(ctx context.Context, s Subscriber[R]) {
		e.Subscribe(ctx, &catchSubscriber[T, R]{downstream: s, transform: transform})
	}}
}

// Ignore discards every value and failure of e and completes normally.
func Ignore[R, T any](e Effect[T]) Effect[R] {
	return Effect[R]{subscribe: func(ctx context.Context, s Subscriber[R]) {
		var once sync.Once
		e.Subscribe(ctx, SubscriberFuncs[T]{
			OnSubscription: func(up Subscription) {
				s.ReceiveSubscription(up)
				up.Request(Unlimited)
			},
			OnCompletion: func(Completion) {
				once.Do(func() { s.ReceiveCompletion(Finished) })
			},
		})
	}}
}

type catchSubscriber[T, R any] struct {
	mu         sync.Mutex
	downstream Subscriber[R]
	upstream   Subscription
	transform  func(T, error) R
	demand     Demand
	pending    *R
	done       bool
}

func (c *catchSubscriber[T, R]) ReceiveSubscription(up Subscription) {
	c.mu.Lock()
	c.upstream = up
	c.mu.Unlock()
	c.downstream.ReceiveSubscription(c)
}

func (c *catchSubscriber[T, R]) Receive(v T) Demand {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return 0
	}
	if c.demand != Unlimited && c.demand > 0 {
		c.demand--
	}
	c.mu.Unlock()

	more := c.downstream.Receive(c.transform(v, nil))

	c.mu.Lock()
	c.demand = c.demand.Add(more)
	c.mu.Unlock()
	return more
}

func (c *catchSubscriber[T, R]) ReceiveCompletion(comp Completion) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	if !comp.IsFailure() {
		c.done = true
		c.mu.Unlock()
		c.downstream.ReceiveCompletion(Finished)
		return
	}
	var zero T
	r := c.transform(zero, comp.Err)
	if c.demand == 0 {
		c.pending = &r
		c.mu.Unlock()
		return
	}
	c.done = true
	c.mu.Unlock()
	c.downstream.Receive(r)
	c.downstream.ReceiveCompletion(Finished)
}

func (c *catchSubscriber[T, R]) Request(d Demand) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.demand = c.demand.Add(d)
	if c.pending != nil {
		r := *c.pending
		c.pending = nil
		c.done = true
		c.mu.Unlock()
		c.downstream.Receive(r)
		c.downstream.ReceiveCompletion(Finished)
		return
	}
	up := c.upstream
	c.mu.Unlock()
	if up != nil {
		up.Request(d)
	}
}

func (c *catchSubscriber[T, R]) Cancel() {
	c.mu.Lock()
	c.done = true
	c.pending = nil
	up := c.upstream
	c.upstream = nil
	c.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}
