package effects

import (
	"context"
	"slices"
	"sync"
)

// Concatenate runs effects one after another. Each effect is subscribed only
// after the previous one finished; a failure ends the whole chain.
func Concatenate[T any](effs ...Effect[T]) Effect[T] {
	if len(effs) == 0 {
		return None[T]()
	}
	sources := slices.Clone(effs)
	return Effect[T]{subscribe: func(ctx context.Context, s Subscriber[T]) {
		c := &concatenated[T]{ctx: ctx, downstream: s, sources: sources}
		s.ReceiveSubscription(c)
		c.advance()
	}}
}

type concatenated[T any] struct {
	ctx        context.Context
	downstream Subscriber[T]
	sources    []Effect[T]

	mu        sync.Mutex
	index     int
	current   Subscription
	demand    Demand
	advancing bool
	again     bool
	cancelled bool
	done      bool
}

// advance subscribes to the source at c.index. Sources that complete
// synchronously are chained in a loop rather than by recursion.
func (c *concatenated[T]) advance() {
	c.mu.Lock()
	if c.advancing {
		c.again = true
		c.mu.Unlock()
		return
	}
	c.advancing = true
	for !c.cancelled && !c.done {
		if c.index >= len(c.sources) {
			c.done = true
			c.mu.Unlock()
			c.downstream.ReceiveCompletion(Finished)
			c.mu.Lock()
			break
		}
		idx := c.index
		c.current = nil
		c.again = false
		c.mu.Unlock()

		c.sources[idx].Subscribe(c.ctx, &concatSide[T]{parent: c, index: idx})

		c.mu.Lock()
		if !c.again {
			break
		}
	}
	c.advancing = false
	c.mu.Unlock()
}

func (c *concatenated[T]) Request(d Demand) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	if c.cancelled || c.done {
		c.mu.Unlock()
		return
	}
	c.demand = c.demand.Add(d)
	cur := c.current
	c.mu.Unlock()
	if cur != nil {
		cur.Request(d)
	}
}

func (c *concatenated[T]) Cancel() {
	c.mu.Lock()
	if c.cancelled || c.done {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	cur := c.current
	c.current = nil
	c.mu.Unlock()
	if cur != nil {
		cur.Cancel()
	}
}

type concatSide[T any] struct {
	parent *concatenated[T]
	index  int
}

func (s *concatSide[T]) stale() bool {
	c := s.parent
	return c.cancelled || c.done || c.index != s.index
}

func (s *concatSide[T]) ReceiveSubscription(sub Subscription) {
	c := s.parent
	c.mu.Lock()
	if s.stale() || c.current != nil {
		c.mu.Unlock()
		sub.Cancel()
		return
	}
	c.current = sub
	d := c.demand
	c.mu.Unlock()
	if d > 0 {
		sub.Request(d)
	}
}

func (s *concatSide[T]) Receive(v T) Demand {
	c := s.parent
	c.mu.Lock()
	if s.stale() {
		c.mu.Unlock()
		return 0
	}
	if c.demand != Unlimited && c.demand > 0 {
		c.demand--
	}
	c.mu.Unlock()

	more := c.downstream.Receive(v)

	c.mu.Lock()
	c.demand = c.demand.Add(more)
	c.mu.Unlock()
	return more
}

func (s *concatSide[T]) ReceiveCompletion(comp Completion) {
	c := s.parent
	c.mu.Lock()
	if s.stale() {
		c.mu.Unlock()
		return
	}
	c.current = nil
	if comp.IsFailure() {
		c.done = true
		c.mu.Unlock()
		c.downstream.ReceiveCompletion(comp)
		return
	}
	c.index++
	c.mu.Unlock()
	c.advance()
}
