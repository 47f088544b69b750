package effects_test

import (
	"context"
	"sync"

	"github.com/on-the-ground/composable_go/effects"
)

// recorder is a Subscriber that records everything it receives and asks for
// a fixed amount of demand.
type recorder[T any] struct {
	initial  effects.Demand
	perValue effects.Demand
	// onReceive runs inside Receive, after the value was recorded.
	onReceive func(effects.Subscription, T)

	mu          sync.Mutex
	sub         effects.Subscription
	values      []T
	completions []effects.Completion
}

func (r *recorder[T]) ReceiveSubscription(s effects.Subscription) {
	r.mu.Lock()
	r.sub = s
	d := r.initial
	r.mu.Unlock()
	if d > 0 {
		s.Request(d)
	}
}

func (r *recorder[T]) Receive(v T) effects.Demand {
	r.mu.Lock()
	r.values = append(r.values, v)
	sub, hook := r.sub, r.onReceive
	r.mu.Unlock()
	if hook != nil {
		hook(sub, v)
	}
	return r.perValue
}

func (r *recorder[T]) ReceiveCompletion(c effects.Completion) {
	r.mu.Lock()
	r.completions = append(r.completions, c)
	r.mu.Unlock()
}

func (r *recorder[T]) Request(d effects.Demand) {
	r.mu.Lock()
	sub := r.sub
	r.mu.Unlock()
	sub.Request(d)
}

func (r *recorder[T]) Cancel() {
	r.mu.Lock()
	sub := r.sub
	r.mu.Unlock()
	sub.Cancel()
}

func (r *recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

func (r *recorder[T]) Completions() []effects.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]effects.Completion(nil), r.completions...)
}

// manualSource is a publisher driven by the test.
type manualSource[T any] struct {
	mu          sync.Mutex
	subscriber  effects.Subscriber[T]
	requested   effects.Demand
	cancelled   bool
	subscribed  int
	lastDemands []effects.Demand
}

func (m *manualSource[T]) Effect() effects.Effect[T] {
	return effects.New[T](m)
}

func (m *manualSource[T]) Subscribe(_ context.Context, s effects.Subscriber[T]) {
	m.mu.Lock()
	m.subscriber = s
	m.subscribed++
	m.mu.Unlock()
	s.ReceiveSubscription(manualSubscription[T]{m})
}

func (m *manualSource[T]) Send(v T) effects.Demand {
	m.mu.Lock()
	s := m.subscriber
	m.mu.Unlock()
	more := s.Receive(v)
	m.mu.Lock()
	m.requested = m.requested.Add(more)
	m.mu.Unlock()
	return more
}

func (m *manualSource[T]) Complete(c effects.Completion) {
	m.mu.Lock()
	s := m.subscriber
	m.mu.Unlock()
	s.ReceiveCompletion(c)
}

func (m *manualSource[T]) Requested() effects.Demand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requested
}

func (m *manualSource[T]) Cancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

func (m *manualSource[T]) Subscribed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed
}

type manualSubscription[T any] struct {
	m *manualSource[T]
}

func (s manualSubscription[T]) Request(d effects.Demand) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.requested = s.m.requested.Add(d)
	s.m.lastDemands = append(s.m.lastDemands, d)
}

func (s manualSubscription[T]) Cancel() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.cancelled = true
}
