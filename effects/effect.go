package effects

import (
	"context"
	"sync"
)

// Effect is a lazy producer of zero or more values of type T that ends in
// completion, in failure, or never. Nothing runs until Subscribe is called.
//
// The zero Effect behaves like None.
type Effect[T any] struct {
	subscribe func(ctx context.Context, s Subscriber[T])
}

var _ Publisher[int] = Effect[int]{}

// New wraps any Publisher as an Effect.
func New[T any](p Publisher[T]) Effect[T] {
	if e, ok := p.(Effect[T]); ok {
		return e
	}
	return Effect[T]{subscribe: p.Subscribe}
}

// Subscribe attaches s to the effect.
func (e Effect[T]) Subscribe(ctx context.Context, s Subscriber[T]) {
	if e.subscribe == nil {
		s.ReceiveSubscription(emptySubscription{})
		s.ReceiveCompletion(Finished)
		return
	}
	e.subscribe(ctx, s)
}

// None completes immediately without emitting.
func None[T any]() Effect[T] {
	return Effect[T]{}
}

// Just emits v once the subscriber requests it, then completes.
func Just[T any](v T) Effect[T] {
	return Effect[T]{subscribe: func(_ context.Context, s Subscriber[T]) {
		s.ReceiveSubscription(&futureSubscription[T]{
			downstream: s,
			resolved:   true,
			value:      v,
		})
	}}
}

// Fail completes immediately with err and emits nothing.
func Fail[T any](err error) Effect[T] {
	return Effect[T]{subscribe: func(_ context.Context, s Subscriber[T]) {
		s.ReceiveSubscription(emptySubscription{})
		s.ReceiveCompletion(Failure(err))
	}}
}

// Future wraps a callback-based computation. attempt is not called until the
// effect is subscribed, and only the first call to the callback counts.
func Future[T any](attempt func(callback func(T, error))) Effect[T] {
	return Effect[T]{subscribe: func(_ context.Context, s Subscriber[T]) {
		sub := &futureSubscription[T]{downstream: s}
		s.ReceiveSubscription(sub)
		if sub.isDone() {
			return
		}
		attempt(sub.resolve)
	}}
}

// Result runs fn synchronously on subscription.
func Result[T any](fn func() (T, error)) Effect[T] {
	return Future(func(callback func(T, error)) {
		callback(fn())
	})
}

// Deferred builds the effect on subscription.
func Deferred[T any](build func() Effect[T]) Effect[T] {
	return Effect[T]{subscribe: func(ctx context.Context, s Subscriber[T]) {
		build().Subscribe(ctx, s)
	}}
}

// FireAndForget runs work on subscription and completes without emitting.
func FireAndForget[T any](work func()) Effect[T] {
	return Effect[T]{subscribe: func(_ context.Context, s Subscriber[T]) {
		work()
		s.ReceiveSubscription(emptySubscription{})
		s.ReceiveCompletion(Finished)
	}}
}

// Map transforms every value of e. Completion and failure pass through.
func Map[T, R any](e Effect[T], transform func(T) R) Effect[R] {
	return Effect[R]{subscribe: func(ctx context.Context, s Subscriber[R]) {
		e.Subscribe(ctx, SubscriberFuncs[T]{
			OnSubscription: s.ReceiveSubscription,
			OnValue: func(v T) Demand {
				return s.Receive(transform(v))
			},
			OnCompletion: s.ReceiveCompletion,
		})
	}}
}

// futureSubscription delivers at most one value. Values wait for demand;
// failures are delivered as soon as they are known.
type futureSubscription[T any] struct {
	mu         sync.Mutex
	downstream Subscriber[T]
	requested  bool
	resolved   bool
	done       bool
	value      T
	err        error
	onCancel   func()
}

func (f *futureSubscription[T]) isDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

func (f *futureSubscription[T]) resolve(v T, err error) {
	f.mu.Lock()
	if f.resolved || f.done {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.value, f.err = v, err
	f.deliverLocked()
}

func (f *futureSubscription[T]) Request(d Demand) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.requested = true
	f.deliverLocked()
}

// deliverLocked is called with f.mu held and always releases it.
func (f *futureSubscription[T]) deliverLocked() {
	if !f.resolved || f.done || (f.err == nil && !f.requested) {
		f.mu.Unlock()
		return
	}
	f.done = true
	ds, v, err := f.downstream, f.value, f.err
	f.downstream = nil
	f.mu.Unlock()

	if err != nil {
		ds.ReceiveCompletion(Failure(err))
		return
	}
	ds.Receive(v)
	ds.ReceiveCompletion(Finished)
}

func (f *futureSubscription[T]) Cancel() {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.downstream = nil
	cancel := f.onCancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
