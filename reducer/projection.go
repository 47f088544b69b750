package reducer

import (
	"github.com/on-the-ground/composable_go/shared/helper"
)

// Lens reads and writes a part P of a whole W.
type Lens[W, P any] struct {
	Get func(W) P
	Set func(*W, P)
}

// Prism matches one case P of a sum type W.
type Prism[W, P any] struct {
	Extract func(W) (P, bool)
	Embed   func(P) W
}

// IdentityLens focuses on the whole value.
func IdentityLens[W any]() Lens[W, W] {
	return Lens[W, W]{
		Get: func(w W) W { return w },
		Set: func(w *W, p W) { *w = p },
	}
}

// IdentityPrism always matches.
func IdentityPrism[W any]() Prism[W, W] {
	return Prism[W, W]{
		Extract: func(w W) (W, bool) { return w, true },
		Embed:   func(p W) W { return p },
	}
}

// CasePrism matches the case of the sealed interface W implemented by P.
// P must implement W; Embed panics otherwise.
func CasePrism[W, P any]() Prism[W, P] {
	return Prism[W, P]{
		Extract: func(w W) (P, bool) {
			return helper.TypedValueOf[P](w)
		},
		Embed: func(p P) W {
			return helper.MustGetTypedValue[W](p)
		},
	}
}
