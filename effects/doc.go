// Package effects provides the lazy, cancellable value streams that reducers
// return to describe side effects.
//
// An Effect does nothing until it is subscribed. A subscriber receives a
// Subscription, requests a Demand, and is then handed values until the
// stream completes, fails, or is cancelled. This is a small demand-driven
// publisher protocol in the spirit of reactive streams, without the
// operator zoo.
//
// # Building effects
//
// Leaf effects:
//   - None, Just, Fail
//   - Future and Result for callback or synchronous computations
//   - Task for work that runs on its own goroutine
//   - FireAndForget for side effects that produce nothing
//
// Combinators:
//   - Concatenate runs effects one after another
//   - Merge runs effects together and interleaves their values
//   - Map, CatchToEffect, Ignore and ReceiveOn reshape a single effect
//
// # Consuming effects
//
// Sink subscribes with unlimited demand and is what a store uses to feed
// effect output back into its action queue.
//
// Example:
//
//	e := effects.Merge(
//	    effects.Just(1),
//	    effects.Task(func(ctx context.Context) (int, error) { return fetch(ctx) }),
//	)
//	handle := effects.Sink(ctx, e, func(v int) { fmt.Println(v) }, nil)
//	defer handle.Cancel()
package effects
