package reducer

import (
	"github.com/on-the-ground/composable_go/effects"
)

// Pullback lifts a reducer on local state LS and local actions LA into one on
// global state GS and global actions GA. Actions the prism does not match are
// ignored. Local output actions are embedded back into GA.
func Pullback[LS, LA, LE, GS, GA, GE any](
	r Reducer[LS, LA, LE],
	state Lens[GS, LS],
	action Prism[GA, LA],
	env func(GE) LE,
) Reducer[GS, GA, GE] {
	return func(gs *GS, ga GA, ge GE) effects.Effect[GA] {
		la, ok := action.Extract(ga)
		if !ok {
			return effects.None[GA]()
		}
		ls := state.Get(*gs)
		eff := r.Run(&ls, la, env(ge))
		state.Set(gs, ls)
		return effects.Map(eff, action.Embed)
	}
}

// PullbackCase is Pullback for a state that is itself a sum type. The reducer
// runs only when both the state case and the action case match.
func PullbackCase[LS, LA, LE, GS, GA, GE any](
	r Reducer[LS, LA, LE],
	state Prism[GS, LS],
	action Prism[GA, LA],
	env func(GE) LE,
) Reducer[GS, GA, GE] {
	return func(gs *GS, ga GA, ge GE) effects.Effect[GA] {
		la, ok := action.Extract(ga)
		if !ok {
			return effects.None[GA]()
		}
		ls, ok := state.Extract(*gs)
		if !ok {
			return effects.None[GA]()
		}
		eff := r.Run(&ls, la, env(ge))
		*gs = state.Embed(ls)
		return effects.Map(eff, action.Embed)
	}
}

// Optional lifts r to run on a possibly absent state. With a nil state the
// action is ignored. The state is copied before r runs and the pointer is
// replaced, so earlier readers of the old pointer never see the mutation.
func Optional[S, A, E any](r Reducer[S, A, E]) Reducer[*S, A, E] {
	return func(state **S, action A, env E) effects.Effect[A] {
		if *state == nil {
			return effects.None[A]()
		}
		local := **state
		eff := r.Run(&local, action, env)
		*state = &local
		return eff
	}
}

// WithEnv adapts r to an environment derived from another one.
func WithEnv[S, A, LE, GE any](r Reducer[S, A, LE], env func(GE) LE) Reducer[S, A, GE] {
	return func(state *S, action A, ge GE) effects.Effect[A] {
		return r.Run(state, action, env(ge))
	}
}
