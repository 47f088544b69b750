// Package viewstore adapts a store for view code: it holds a deduplicated
// copy of the state and exposes field-level projections of it.
package viewstore

import (
	"sync"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/shared/observable"
	"github.com/on-the-ground/composable_go/store"
)

// ViewStore observes a store, dropping states isDuplicate considers equal to
// the previous one, and sends actions to it.
type ViewStore[S, A any] struct {
	send  func(A)
	state *observable.CurrentValue[S]

	mu     sync.Mutex
	handle effects.Cancellable
}

// New creates a ViewStore over s.
func New[S, A any](s *store.Store[S, A], isDuplicate func(prev, next S) bool) *ViewStore[S, A] {
	vs := &ViewStore[S, A]{
		send:  s.Send,
		state: observable.NewCurrentValue(s.State()),
	}
	vs.handle = observable.RemoveDuplicates(s.Publisher(), isDuplicate).Subscribe(vs.state.Send)
	return vs
}

// NewComparable creates a ViewStore that drops states equal under ==.
func NewComparable[S comparable, A any](s *store.Store[S, A]) *ViewStore[S, A] {
	return New(s, func(prev, next S) bool { return prev == next })
}

// State returns the last distinct state.
func (vs *ViewStore[S, A]) State() S {
	return vs.state.Value()
}

// Send sends action to the underlying store.
func (vs *ViewStore[S, A]) Send(action A) {
	vs.send(action)
}

// Publisher publishes the current state on subscription and every distinct
// state afterwards. When a value is delivered, State already returns it.
func (vs *ViewStore[S, A]) Publisher() observable.Observable[S] {
	return vs.state
}

// Close detaches the ViewStore from its store. It is safe to call twice.
func (vs *ViewStore[S, A]) Close() {
	vs.mu.Lock()
	h := vs.handle
	vs.handle = nil
	vs.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// Field publishes one field of the state, skipping repeats.
func Field[S, A any, F comparable](vs *ViewStore[S, A], project func(S) F) observable.Observable[F] {
	return observable.Distinct(observable.Map(vs.Publisher(), project))
}

// FieldFunc is Field for fields that are not comparable.
func FieldFunc[S, A, F any](vs *ViewStore[S, A], project func(S) F, isDuplicate func(prev, next F) bool) observable.Observable[F] {
	return observable.RemoveDuplicates(observable.Map(vs.Publisher(), project), isDuplicate)
}
