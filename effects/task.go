package effects

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/composable_go/effects/concurrency"
)

// ErrTaskPanicked wraps the value recovered from a panicking Task.
var ErrTaskPanicked = errors.New("task panicked")

// Task runs fn on its own goroutine once the effect is subscribed and emits
// its result. The goroutine is registered with the supervisor installed in the
// subscription context, if any. Cancelling the subscription cancels the
// context given to fn and suppresses its result. When the subscription
// context itself is cancelled, the effect fails with the context's error.
func Task[T any](fn func(context.Context) (T, error)) Effect[T] {
	return Effect[T]{subscribe: func(ctx context.Context, s Subscriber[T]) {
		taskCtx, cancel := context.WithCancel(ctx)
		sub := &futureSubscription[T]{downstream: s, onCancel: cancel}
		s.ReceiveSubscription(sub)
		if sub.isDone() {
			cancel()
			return
		}

		started := concurrency.Go(taskCtx, func(ctx context.Context) {
			defer cancel()
			v, err := runTask(ctx, fn)
			if ctxErr := ctx.Err(); ctxErr != nil {
				// A cancelled subscription ignores this; a cancelled parent
				// context ends the effect with its error.
				var zero T
				v, err = zero, ctxErr
			}
			sub.resolve(v, err)
		})
		if !started {
			cancel()
			var zero T
			sub.resolve(zero, concurrency.ErrSupervisorClosed)
		}
	}}
}

func runTask[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return fn(ctx)
}
