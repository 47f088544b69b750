package reducer

import (
	"maps"
	"slices"

	"github.com/on-the-ground/composable_go/effects"
)

// Indexed addresses an element action to the element at Index.
type Indexed[A any] struct {
	Index  int
	Action A
}

// Keyed addresses an element action to the element stored under Key.
type Keyed[K comparable, A any] struct {
	Key    K
	Action A
}

// ForEachIndexed lifts an element reducer over a slice of elements. An index
// out of range is ignored. The slice is cloned before the element is
// mutated, so a previously published slice is never written to.
func ForEachIndexed[S, A, E, GS, GA, GE any](
	r Reducer[S, A, E],
	state Lens[GS, []S],
	action Prism[GA, Indexed[A]],
	env func(GE) E,
) Reducer[GS, GA, GE] {
	return func(gs *GS, ga GA, ge GE) effects.Effect[GA] {
		ia, ok := action.Extract(ga)
		if !ok {
			return effects.None[GA]()
		}
		elems := state.Get(*gs)
		if ia.Index < 0 || ia.Index >= len(elems) {
			return effects.None[GA]()
		}
		elems = slices.Clone(elems)
		eff := r.Run(&elems[ia.Index], ia.Action, env(ge))
		state.Set(gs, elems)

		idx := ia.Index
		return effects.Map(eff, func(a A) GA {
			return action.Embed(Indexed[A]{Index: idx, Action: a})
		})
	}
}

// ForEachKeyed lifts an element reducer over a map of elements. A missing
// key is ignored. The map is cloned before the element is mutated.
func ForEachKeyed[K comparable, S, A, E, GS, GA, GE any](
	r Reducer[S, A, E],
	state Lens[GS, map[K]S],
	action Prism[GA, Keyed[K, A]],
	env func(GE) E,
) Reducer[GS, GA, GE] {
	return func(gs *GS, ga GA, ge GE) effects.Effect[GA] {
		ka, ok := action.Extract(ga)
		if !ok {
			return effects.None[GA]()
		}
		elems := state.Get(*gs)
		elem, ok := elems[ka.Key]
		if !ok {
			return effects.None[GA]()
		}
		eff := r.Run(&elem, ka.Action, env(ge))
		elems = maps.Clone(elems)
		elems[ka.Key] = elem
		state.Set(gs, elems)

		key := ka.Key
		return effects.Map(eff, func(a A) GA {
			return action.Embed(Keyed[K, A]{Key: key, Action: a})
		})
	}
}
