// Package reducer defines the state transition functions a store runs and
// the combinators that compose them.
package reducer

import (
	"github.com/on-the-ground/composable_go/effects"
)

// Reducer evolves state in response to action and returns the effect whose
// output actions are fed back into the store. env is read-only.
type Reducer[S, A, E any] func(state *S, action A, env E) effects.Effect[A]

// Run calls r. A nil reducer does nothing.
func (r Reducer[S, A, E]) Run(state *S, action A, env E) effects.Effect[A] {
	if r == nil {
		return effects.None[A]()
	}
	return r(state, action, env)
}

// Combined runs r and then other.
func (r Reducer[S, A, E]) Combined(other Reducer[S, A, E]) Reducer[S, A, E] {
	return Combine(r, other)
}

// Empty returns a reducer that ignores every action.
func Empty[S, A, E any]() Reducer[S, A, E] {
	return func(*S, A, E) effects.Effect[A] {
		return effects.None[A]()
	}
}

// Combine runs every reducer in order against the same state, so each one
// sees the mutations of those before it. Their effects are merged.
func Combine[S, A, E any](rs ...Reducer[S, A, E]) Reducer[S, A, E] {
	return func(state *S, action A, env E) effects.Effect[A] {
		effs := make([]effects.Effect[A], 0, len(rs))
		for _, r := range rs {
			effs = append(effs, r.Run(state, action, env))
		}
		switch len(effs) {
		case 0:
			return effects.None[A]()
		case 1:
			return effs[0]
		default:
			return effects.Merge(effs...)
		}
	}
}
