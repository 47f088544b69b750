package effects

import (
	"context"
	"math"
)

// Demand is the number of values a subscriber is currently willing to accept.
// The zero value means no demand.
type Demand int64

// Unlimited demand never decreases.
const Unlimited Demand = math.MaxInt64

// Max returns a bounded demand of n values. Negative n is treated as zero.
func Max(n int) Demand {
	if n <= 0 {
		return 0
	}
	return Demand(n)
}

// Add returns d+o, saturating at Unlimited.
func (d Demand) Add(o Demand) Demand {
	if d == Unlimited || o == Unlimited {
		return Unlimited
	}
	if o <= 0 {
		return d
	}
	if d > Unlimited-o {
		return Unlimited
	}
	return d + o
}

// Completion terminates a stream. A nil Err means the stream finished normally.
type Completion struct {
	Err error
}

// Finished is the normal completion.
var Finished = Completion{}

// Failure wraps err as a failed completion.
func Failure(err error) Completion {
	return Completion{Err: err}
}

// IsFailure reports whether the completion carries an error.
func (c Completion) IsFailure() bool {
	return c.Err != nil
}

// Subscription is the handle a publisher gives to its subscriber.
// Both methods must be safe to call more than once and from any goroutine.
type Subscription interface {
	Request(Demand)
	Cancel()
}

// Subscriber consumes values from a Publisher.
//
// Receive returns the additional demand the subscriber wants on top of
// whatever it already requested.
type Subscriber[T any] interface {
	ReceiveSubscription(Subscription)
	Receive(T) Demand
	ReceiveCompletion(Completion)
}

// Publisher produces values for a single subscriber per Subscribe call.
// The context scopes any goroutines the publisher spawns.
type Publisher[T any] interface {
	Subscribe(ctx context.Context, s Subscriber[T])
}

// Cancellable is a handle to an active subscription.
type Cancellable interface {
	Cancel()
}

// SubscriberFuncs adapts plain functions to the Subscriber interface.
// Nil callbacks are ignored; a nil OnValue returns no extra demand.
type SubscriberFuncs[T any] struct {
	OnSubscription func(Subscription)
	OnValue        func(T) Demand
	OnCompletion   func(Completion)
}

func (f SubscriberFuncs[T]) ReceiveSubscription(s Subscription) {
	if f.OnSubscription != nil {
		f.OnSubscription(s)
	}
}

func (f SubscriberFuncs[T]) Receive(v T) Demand {
	if f.OnValue != nil {
		return f.OnValue(v)
	}
	return 0
}

func (f SubscriberFuncs[T]) ReceiveCompletion(c Completion) {
	if f.OnCompletion != nil {
		f.OnCompletion(c)
	}
}

type emptySubscription struct{}

func (emptySubscription) Request(Demand) {}
func (emptySubscription) Cancel()        {}

// Scheduler runs work items. Items scheduled with the same key run one at a
// time in the order they were scheduled.
type Scheduler interface {
	Schedule(key string, fn func())
}
