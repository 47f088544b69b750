package store

import (
	"sync"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/shared/observable"
)

// Scope derives a child store that shows toLocal of the parent's state and
// forwards its actions to the parent through fromLocal.
//
// The child holds its own copy of the local state. Every state the parent
// publishes is queued on the child like an action, so the child applies
// parent states in order and ends each batch on the latest one. The parent
// must outlive the child; closing the child detaches it from the parent.
func Scope[S, A, LS, LA any](
	parent *Store[S, A],
	toLocal func(S) LS,
	fromLocal func(LA) A,
) *Store[LS, LA] {
	reduce := func(local *LS, action LA) effects.Effect[LA] {
		parent.Send(fromLocal(action))
		*local = toLocal(parent.State())
		return effects.None[LA]()
	}

	child := newStore(parent.ctx, toLocal(parent.State()), reduce, parent.childOptions())
	child.parentCancellable = parent.Subscribe(func(state S) {
		child.refresh(func(local *LS) {
			*local = toLocal(state)
		})
	})
	return child
}

// ScopeState derives a child store over part of the parent's state that
// sends the parent's own actions.
func ScopeState[S, A, LS any](parent *Store[S, A], toLocal func(S) LS) *Store[LS, A] {
	return Scope(parent, toLocal, identity[A])
}

// Stateless derives a child store that only sends actions.
func Stateless[S, A any](parent *Store[S, A]) *Store[struct{}, A] {
	return ScopeState(parent, func(S) struct{} { return struct{}{} })
}

// Never is an action type no caller can construct a non-nil value of.
type Never interface {
	never()
}

// Actionless derives a child store that only observes state.
func Actionless[S, A any](parent *Store[S, A]) *Store[S, Never] {
	return Scope(parent, identity[S], func(Never) A {
		panic("store: action sent to an actionless store")
	})
}

func identity[T any](v T) T { return v }

// IfLet watches an optional state and calls then with a scoped store each
// time the state becomes present, and otherwise each time it becomes absent.
// Changes that keep the state present or absent are not reported. The
// scoped store keeps showing the last present state. Callers own the stores
// passed to then and must close them.
func IfLet[S, A any](
	s *Store[*S, A],
	then func(*Store[S, A]),
	otherwise func(),
) effects.Cancellable {
	presence := observable.RemoveDuplicates(s.Publisher(), func(prev, next *S) bool {
		return (prev != nil) == (next != nil)
	})
	return presence.Subscribe(func(state *S) {
		if state == nil {
			if otherwise != nil {
				otherwise()
			}
			return
		}
		var mu sync.Mutex
		last := *state
		then(ScopeState(s, func(p *S) S {
			mu.Lock()
			defer mu.Unlock()
			if p != nil {
				last = *p
			}
			return last
		}))
	})
}
