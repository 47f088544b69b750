// Package observable holds the minimal observable-value types the store uses
// to publish state changes.
package observable

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/composable_go/effects"
)

// ErrCancelledTwice is the panic value of a subscription handle cancelled
// more than once.
var ErrCancelledTwice = errors.New("subscription cancelled twice")

// Observable delivers values to subscribed callbacks.
type Observable[T any] interface {
	Subscribe(fn func(T)) effects.Cancellable
}

// Func adapts a subscribe function to Observable.
type Func[T any] func(fn func(T)) effects.Cancellable

func (f Func[T]) Subscribe(fn func(T)) effects.Cancellable {
	return f(fn)
}

type handle struct {
	cancelled atomic.Bool
	cancel    func()
}

func newHandle(cancel func()) *handle {
	return &handle{cancel: cancel}
}

func (h *handle) Cancel() {
	if h.cancelled.Swap(true) {
		panic(ErrCancelledTwice)
	}
	h.cancel()
}

type observer[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// CurrentValue holds a value and notifies observers whenever it is replaced.
// New observers immediately receive the current value.
//
// Observers are called without any lock held, so they may call Send. Only
// one goroutine delivers at a time: a Send made while a round is running
// stores the value and returns, and the delivering goroutine picks it up
// once its current observer returns. The older round is abandoned, so no
// observer sees an older value after a newer one.
type CurrentValue[T any] struct {
	mu         sync.Mutex
	value      T
	version    uint64
	observers  []*observer[T]
	delivering bool
}

var _ Observable[int] = (*CurrentValue[int])(nil)

func NewCurrentValue[T any](initial T) *CurrentValue[T] {
	return &CurrentValue[T]{value: initial}
}

// Value returns the current value.
func (c *CurrentValue[T]) Value() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Send replaces the current value and notifies every observer, unless
// another Send is delivering, in which case that delivery hands it on.
func (c *CurrentValue[T]) Send(v T) {
	c.mu.Lock()
	c.value = v
	c.version++
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.delivering = false
		c.mu.Unlock()
	}()

	c.mu.Lock()
	for {
		v, version := c.value, c.version
		observers := append([]*observer[T](nil), c.observers...)
		c.mu.Unlock()

		for _, o := range observers {
			if c.stale(version) {
				break
			}
			if o.active.Load() {
				o.fn(v)
			}
		}

		c.mu.Lock()
		if c.version == version {
			c.mu.Unlock()
			return
		}
	}
}

func (c *CurrentValue[T]) stale(version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version != version
}

// Subscribe registers fn and calls it with the current value.
func (c *CurrentValue[T]) Subscribe(fn func(T)) effects.Cancellable {
	o := &observer[T]{fn: fn}
	o.active.Store(true)

	c.mu.Lock()
	c.observers = append(c.observers, o)
	v := c.value
	c.mu.Unlock()

	fn(v)

	return newHandle(func() {
		o.active.Store(false)
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, other := range c.observers {
			if other == o {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				break
			}
		}
	})
}

// Observers reports the number of registered observers.
func (c *CurrentValue[T]) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Map transforms every value of src.
func Map[T, R any](src Observable[T], transform func(T) R) Observable[R] {
	return Func[R](func(fn func(R)) effects.Cancellable {
		return src.Subscribe(func(v T) {
			fn(transform(v))
		})
	})
}

// RemoveDuplicates skips values isDuplicate considers equal to the last value
// delivered to the same subscriber.
func RemoveDuplicates[T any](src Observable[T], isDuplicate func(prev, next T) bool) Observable[T] {
	return Func[T](func(fn func(T)) effects.Cancellable {
		var (
			mu   sync.Mutex
			last T
			seen bool
		)
		return src.Subscribe(func(v T) {
			mu.Lock()
			if seen && isDuplicate(last, v) {
				mu.Unlock()
				return
			}
			last, seen = v, true
			mu.Unlock()
			fn(v)
		})
	})
}

// Distinct is RemoveDuplicates using ==.
func Distinct[T comparable](src Observable[T]) Observable[T] {
	return RemoveDuplicates(src, func(prev, next T) bool { return prev == next })
}

// DropFirst skips the first n values delivered to each subscriber.
func DropFirst[T any](src Observable[T], n int) Observable[T] {
	return Func[T](func(fn func(T)) effects.Cancellable {
		var skipped atomic.Int64
		return src.Subscribe(func(v T) {
			if skipped.Add(1) <= int64(n) {
				return
			}
			fn(v)
		})
	})
}
