package store

import (
	"fmt"
	"time"

	"github.com/rickb777/date/v2/timespan"
)

// ActionRecord describes one action processed by a store.
type ActionRecord[A any] struct {
	// Seq numbers processed actions from 1.
	Seq    uint64
	Action A
	// Origin is the action whose effect produced Action, if HasOrigin.
	Origin    A
	HasOrigin bool
	// Span covers the reducer call.
	Span timespan.TimeSpan
}

func newRecord[S, A any](seq uint64, p pendingAction[S, A], start, end time.Time) ActionRecord[A] {
	r := ActionRecord[A]{
		Seq:    seq,
		Action: p.action,
		Span:   timespan.BetweenTimes(start, end),
	}
	if p.origin != nil {
		r.Origin, r.HasOrigin = *p.origin, true
	}
	return r
}

// String formats the record without its timing.
func (r ActionRecord[A]) String() string {
	origin := "-"
	if r.HasOrigin {
		origin = fmt.Sprintf("%v", r.Origin)
	}
	return fmt.Sprintf("#%d %v (from %s)", r.Seq, r.Action, origin)
}
