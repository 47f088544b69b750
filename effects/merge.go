package effects

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Merge subscribes to every effect at once and forwards their values to a
// single subscriber as they arrive, honouring the subscriber's demand.
//
// The first failure from any source cancels the others and is forwarded
// once. Normal completion is forwarded once, after every source finished and
// every buffered value was delivered. Merging zero effects completes at once.
func Merge[T any](effs ...Effect[T]) Effect[T] {
	sources := slices.Clone(effs)
	return Effect[T]{subscribe: func(ctx context.Context, s Subscriber[T]) {
		m := newMerged(s, len(sources))
		s.ReceiveSubscription(m)
		if len(sources) == 0 {
			m.sendCompletion(Finished)
			return
		}
		for i, src := range sources {
			src.Subscribe(ctx, mergeSide[T]{index: i, m: m})
		}
	}}
}

// merged is the fan-in state shared by all sources of one Merge subscription.
//
// mu guards the bookkeeping. downstreamMu is held only while calling the
// downstream subscriber, so values are never delivered concurrently. mu is
// always released before downstreamMu is taken.
type merged[T any] struct {
	downstream Subscriber[T]
	count      int

	mu           sync.Mutex
	downstreamMu sync.Mutex

	demand Demand
	// pending collects demand requested while a value is being delivered.
	pending   Demand
	recursive int

	terminated bool
	cancelled  bool
	completed  bool
	finished   int

	finishedSources []bool
	subscriptions   []Subscription
	buffers         []*T

	// closed is set once the downstream must see nothing more. It is checked
	// under downstreamMu so no value can follow a failure or a cancel.
	closed atomic.Bool
}

func newMerged[T any](s Subscriber[T], n int) *merged[T] {
	return &merged[T]{
		downstream:      s,
		count:           n,
		finishedSources: make([]bool, n),
		subscriptions:   make([]Subscription, n),
		buffers:         make([]*T, n),
	}
}

type request struct {
	sub    Subscription
	demand Demand
}

func issue(reqs []request) {
	for _, r := range reqs {
		r.sub.Request(r.demand)
	}
}

func (m *merged[T]) inactiveLocked() bool {
	return m.terminated || m.cancelled
}

// sendLocked is called with mu held. It releases mu while the downstream is
// called and holds it again on return.
func (m *merged[T]) sendLocked(v T) Demand {
	m.recursive++
	m.mu.Unlock()

	var more Demand
	m.downstreamMu.Lock()
	if !m.closed.Load() {
		more = m.downstream.Receive(v)
	}
	m.downstreamMu.Unlock()

	m.mu.Lock()
	m.recursive--
	return more
}

func (m *merged[T]) sendCompletion(c Completion) {
	m.downstreamMu.Lock()
	defer m.downstreamMu.Unlock()
	if m.closed.Swap(true) {
		return
	}
	m.downstream.ReceiveCompletion(c)
}

// absorbLocked adds the demand returned by the downstream and whatever was
// requested while delivering. It reports whether demand became unlimited.
func (m *merged[T]) absorbLocked(more Demand) bool {
	was := m.demand == Unlimited
	m.demand = m.demand.Add(more).Add(m.pending)
	m.pending = 0
	return !was && m.demand == Unlimited
}

func (m *merged[T]) liveRequestsLocked(d Demand) []request {
	reqs := make([]request, 0, m.count)
	for _, sub := range m.subscriptions {
		if sub != nil {
			reqs = append(reqs, request{sub: sub, demand: d})
		}
	}
	return reqs
}

// drainLocked delivers buffered values while demand remains and returns the
// follow-up requests for the sources that were drained.
func (m *merged[T]) drainLocked() []request {
	var reqs []request
	promoted := false
	for progress := true; progress; {
		progress = false
		for i := range m.buffers {
			if m.inactiveLocked() || m.demand == 0 {
				break
			}
			b := m.buffers[i]
			if b == nil {
				continue
			}
			m.buffers[i] = nil
			progress = true
			if m.demand != Unlimited {
				m.demand--
			}
			if m.absorbLocked(m.sendLocked(*b)) {
				promoted = true
			}
			if sub := m.subscriptions[i]; sub != nil {
				reqs = append(reqs, request{sub: sub, demand: Max(1)})
			}
		}
	}
	if m.inactiveLocked() {
		return nil
	}
	if promoted {
		return m.liveRequestsLocked(Unlimited)
	}
	return reqs
}

// shouldCompleteLocked reports whether the completion must be sent now, and
// marks it sent so it fires at most once.
func (m *merged[T]) shouldCompleteLocked() bool {
	if m.completed || m.inactiveLocked() || m.finished < m.count {
		return false
	}
	for _, b := range m.buffers {
		if b != nil {
			return false
		}
	}
	for _, sub := range m.subscriptions {
		if sub != nil {
			return false
		}
	}
	m.completed = true
	return true
}

func (m *merged[T]) receiveSubscription(i int, sub Subscription) {
	m.mu.Lock()
	if m.inactiveLocked() || m.finishedSources[i] || m.subscriptions[i] != nil {
		m.mu.Unlock()
		sub.Cancel()
		return
	}
	m.subscriptions[i] = sub
	d := Max(1)
	if m.demand == Unlimited {
		d = Unlimited
	}
	m.mu.Unlock()
	sub.Request(d)
}

func (m *merged[T]) receive(i int, v T) Demand {
	m.mu.Lock()
	if m.inactiveLocked() || m.finishedSources[i] {
		m.mu.Unlock()
		return 0
	}
	switch m.demand {
	case Unlimited:
		m.absorbLocked(m.sendLocked(v))
		m.mu.Unlock()
		return 0
	case 0:
		m.buffers[i] = &v
		m.mu.Unlock()
		return 0
	}

	m.demand--
	var reqs []request
	if m.absorbLocked(m.sendLocked(v)) {
		reqs = m.liveRequestsLocked(Unlimited)
	}
	reqs = append(reqs, m.drainLocked()...)
	complete := m.shouldCompleteLocked()
	m.mu.Unlock()

	issue(reqs)
	if complete {
		m.sendCompletion(Finished)
	}
	return Max(1)
}

func (m *merged[T]) receiveCompletion(i int, c Completion) {
	m.mu.Lock()
	if m.inactiveLocked() || m.finishedSources[i] {
		m.mu.Unlock()
		return
	}
	if c.IsFailure() {
		m.terminated = true
		others := m.liveRequestsLocked(0)
		clear(m.subscriptions)
		clear(m.buffers)
		m.mu.Unlock()

		for _, r := range others {
			r.sub.Cancel()
		}
		m.sendCompletion(c)
		return
	}
	m.finishedSources[i] = true
	m.finished++
	m.subscriptions[i] = nil
	complete := m.shouldCompleteLocked()
	m.mu.Unlock()

	if complete {
		m.sendCompletion(Finished)
	}
}

// Request adds demand. Unlimited demand is passed on to every live source;
// otherwise buffered values are delivered first.
func (m *merged[T]) Request(d Demand) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	if m.inactiveLocked() {
		m.mu.Unlock()
		return
	}
	if m.recursive > 0 {
		m.pending = m.pending.Add(d)
		m.mu.Unlock()
		return
	}
	var reqs []request
	if m.absorbLocked(d) {
		reqs = m.liveRequestsLocked(Unlimited)
	}
	reqs = append(reqs, m.drainLocked()...)
	complete := m.shouldCompleteLocked()
	m.mu.Unlock()

	issue(reqs)
	if complete {
		m.sendCompletion(Finished)
	}
}

func (m *merged[T]) Cancel() {
	m.mu.Lock()
	if m.inactiveLocked() {
		m.mu.Unlock()
		return
	}
	m.cancelled = true
	live := m.liveRequestsLocked(0)
	clear(m.subscriptions)
	clear(m.buffers)
	m.mu.Unlock()

	m.closed.Store(true)
	for _, r := range live {
		r.sub.Cancel()
	}
}

type mergeSide[T any] struct {
	index int
	m     *merged[T]
}

func (s mergeSide[T]) ReceiveSubscription(sub Subscription) { s.m.receiveSubscription(s.index, sub) }
func (s mergeSide[T]) Receive(v T) Demand                   { return s.m.receive(s.index, v) }
func (s mergeSide[T]) ReceiveCompletion(c Completion)       { s.m.receiveCompletion(s.index, c) }
