// Package store holds state, runs reducers against it, and feeds the output
// of their effects back in as new actions.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/effects/concurrency"
	"github.com/on-the-ground/composable_go/reducer"
	"github.com/on-the-ground/composable_go/shared/helper"
	"github.com/on-the-ground/composable_go/shared/observable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type pendingAction[S, A any] struct {
	action A
	origin *A
	// refresh, when set, replaces the state instead of running the reducer.
	refresh func(*S)
}

// Store owns one state value and evolves it only through its reducer.
//
// Send may be called from any goroutine. Exactly one goroutine drains the
// action queue at a time; actions sent while it drains, including those sent
// synchronously by effects, are queued behind the ones already waiting.
// Observers are notified once per drained batch.
type Store[S, A any] struct {
	id     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
	// endSupervisor waits for task goroutines started by this store's effects.
	endSupervisor func() context.Context
	reduce        func(*S, A) effects.Effect[A]

	mu                 sync.Mutex
	buffered           []pendingAction[S, A]
	isSending          bool
	closed             bool
	effectCancellables map[uuid.UUID]effects.Cancellable
	parentCancellable  effects.Cancellable
	seq                uint64

	subject *observable.CurrentValue[S]

	baseLogger    *zap.Logger
	logger        *zap.Logger
	tracer        trace.Tracer
	scheduler     effects.Scheduler
	recorder      func(ActionRecord[A])
	recordActions bool
}

// New creates a store holding initial and driven by r. Effects run under a
// context derived from ctx; cancelling ctx or calling Close stops them.
func New[S, A, E any](
	ctx context.Context,
	initial S,
	r reducer.Reducer[S, A, E],
	env E,
	opts ...Option,
) *Store[S, A] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	reduce := func(state *S, action A) effects.Effect[A] {
		return r.Run(state, action, env)
	}
	return newStore(ctx, initial, reduce, o)
}

func newStore[S, A any](
	ctx context.Context,
	initial S,
	reduce func(*S, A) effects.Effect[A],
	o options,
) *Store[S, A] {
	id := uuid.New()
	logger := o.logger.With(zap.String("store_id", id.String()))

	ctx, endSupervisor := concurrency.WithSupervisor(ctx, logger)
	ctx, cancel := context.WithCancel(ctx)

	s := &Store[S, A]{
		id:                 id,
		ctx:                ctx,
		cancel:             cancel,
		endSupervisor:      endSupervisor,
		reduce:             reduce,
		effectCancellables: make(map[uuid.UUID]effects.Cancellable),
		subject:            observable.NewCurrentValue(initial),
		baseLogger:         o.logger,
		logger:             logger,
		tracer:             o.tracer,
		scheduler:          o.scheduler,
		recordActions:      o.recordActions,
	}
	if o.recorder != nil {
		s.recorder = helper.MustGetTypedValue[func(ActionRecord[A])](o.recorder)
	}
	return s
}

// childOptions returns the options a scoped child inherits.
func (s *Store[S, A]) childOptions() options {
	return options{
		logger:        s.baseLogger.With(zap.String("parent_store_id", s.id.String())),
		tracer:        s.tracer,
		recordActions: s.recordActions,
	}
}

// ID identifies the store in logs and traces.
func (s *Store[S, A]) ID() uuid.UUID {
	return s.id
}

// State returns the most recently published state.
func (s *Store[S, A]) State() S {
	return s.subject.Value()
}

// Publisher publishes the current state on subscription and every state
// published afterwards.
func (s *Store[S, A]) Publisher() observable.Observable[S] {
	return s.subject
}

// Subscribe calls fn with every state published after the call.
func (s *Store[S, A]) Subscribe(fn func(S)) effects.Cancellable {
	return observable.DropFirst[S](s.subject, 1).Subscribe(fn)
}

// InFlight reports the number of effects that have not completed yet.
func (s *Store[S, A]) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.effectCancellables)
}

// Send processes action, and everything it causes synchronously, before
// returning. When called while the store is already draining, action is
// queued and Send returns at once.
func (s *Store[S, A]) Send(action A) {
	s.send(action, nil)
}

func (s *Store[S, A]) send(action A, origin *A) {
	s.enqueue(pendingAction[S, A]{action: action, origin: origin})
}

// refresh queues fn behind the pending actions. Scoped stores use it to apply
// parent states in the order the parent published them.
func (s *Store[S, A]) refresh(fn func(*S)) {
	s.enqueue(pendingAction[S, A]{refresh: fn})
}

func (s *Store[S, A]) enqueue(p pendingAction[S, A]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if p.refresh == nil {
			s.logger.Warn("action sent to closed store dropped",
				zap.String("action", fmt.Sprintf("%T", p.action)),
			)
		}
		return
	}
	s.buffered = append(s.buffered, p)
	if s.isSending {
		s.mu.Unlock()
		return
	}
	s.isSending = true
	s.mu.Unlock()

	ctx, span := s.tracer.Start(s.ctx, "store.send", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	if span.IsRecording() {
		span.SetAttributes(attribute.String("store.id", s.id.String()))
		if p.refresh == nil {
			span.SetAttributes(attribute.String("store.action", fmt.Sprintf("%T", p.action)))
		}
	}

	processed := s.drain(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.Int("store.actions_processed", processed))
		span.SetStatus(codes.Ok, "")
	}
}

// drain runs queued actions until the queue stays empty after publishing.
// It returns the number of actions processed.
func (s *Store[S, A]) drain(ctx context.Context) int {
	current := s.subject.Value()
	processed := 0
	dirty := false
	for {
		s.mu.Lock()
		if s.closed {
			s.buffered = nil
			s.isSending = false
			s.mu.Unlock()
			return processed
		}
		if len(s.buffered) == 0 {
			if !dirty {
				s.isSending = false
				s.mu.Unlock()
				return processed
			}
			s.mu.Unlock()
			// Observers may send; those actions form the next batch.
			dirty = false
			s.subject.Send(current)
			continue
		}
		next := s.buffered[0]
		s.buffered[0] = pendingAction[S, A]{}
		s.buffered = s.buffered[1:]
		if next.refresh != nil {
			s.mu.Unlock()
			next.refresh(&current)
			dirty = true
			continue
		}
		s.seq++
		seq := s.seq
		s.mu.Unlock()

		start := time.Now()
		eff := s.reduce(&current, next.action)
		s.record(seq, next, start)
		processed++
		dirty = true

		s.subscribe(ctx, eff, next.action)
	}
}

func (s *Store[S, A]) record(seq uint64, p pendingAction[S, A], start time.Time) {
	if s.recorder == nil && !s.recordActions {
		return
	}
	rec := newRecord(seq, p, start, time.Now())
	if s.recordActions {
		s.logger.Debug("action processed",
			zap.Uint64("seq", rec.Seq),
			zap.String("action", fmt.Sprintf("%v", rec.Action)),
			zap.Bool("has_origin", rec.HasOrigin),
			zap.Duration("took", rec.Span.Duration()),
		)
	}
	if s.recorder != nil {
		s.recorder(rec)
	}
}

// subscribe starts eff and tracks it under a fresh token until it completes.
// Effects that complete during subscription never get a table entry.
func (s *Store[S, A]) subscribe(ctx context.Context, eff effects.Effect[A], origin A) {
	if s.scheduler != nil {
		eff = effects.ReceiveOn(eff, s.scheduler, s.id.String())
	}
	token := uuid.New()
	done := false

	handle := effects.Sink(s.ctx, eff,
		func(a A) {
			s.send(a, &origin)
		},
		func(c effects.Completion) {
			s.mu.Lock()
			done = true
			delete(s.effectCancellables, token)
			s.mu.Unlock()
			if c.IsFailure() {
				s.effectFailed(ctx, token, c.Err)
			}
		},
	)

	s.mu.Lock()
	if done {
		s.mu.Unlock()
		return
	}
	if s.closed {
		s.mu.Unlock()
		handle.Cancel()
		return
	}
	s.effectCancellables[token] = handle
	s.mu.Unlock()
}

func (s *Store[S, A]) effectFailed(ctx context.Context, token uuid.UUID, err error) {
	s.logger.Error("effect failed",
		zap.String("token", token.String()),
		zap.Error(err),
	)
	_, span := s.tracer.Start(trace.ContextWithSpanContext(s.ctx, trace.SpanContextFromContext(ctx)), "store.effect",
		trace.WithAttributes(
			attribute.String("store.id", s.id.String()),
			attribute.String("store.effect.token", token.String()),
		),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

// Close cancels every in-flight effect, detaches a scoped store from its
// parent, and waits for task goroutines to return. No effect output is
// delivered once Close returns, and later sends are dropped. It must not be
// called from inside a reducer.
func (s *Store[S, A]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	handles := make([]effects.Cancellable, 0, len(s.effectCancellables))
	for _, h := range s.effectCancellables {
		handles = append(handles, h)
	}
	clear(s.effectCancellables)
	parent := s.parentCancellable
	s.parentCancellable = nil
	s.buffered = nil
	s.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
	if parent != nil {
		parent.Cancel()
	}
	s.cancel()
	s.endSupervisor()
	s.logger.Debug("store closed", zap.Int("cancelled_effects", len(handles)))
}
