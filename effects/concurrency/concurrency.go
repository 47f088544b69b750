package concurrency

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNoSupervisor is returned when the context carries no supervisor.
	ErrNoSupervisor = errors.New("no supervisor in context")

	// ErrSupervisorClosed is reported for work submitted after teardown.
	ErrSupervisorClosed = errors.New("supervisor closed")
)

type supervisorKey struct{}

// WithSupervisor installs a goroutine supervisor in the returned context.
//
// Every goroutine started through Go with that context is tracked:
//   - Each child gets its own cancellable context derived from the caller's.
//   - Cancelling the parent context cancels every live child.
//   - Panics in children are recovered and logged.
//
// The returned teardown stops accepting new children, blocks until the running
// ones return, and gives back the context without the supervisor.
func WithSupervisor(
	ctx context.Context,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sv := &Supervisor{
		logger:          logger,
		childrenCancels: make(map[uint64]context.CancelFunc),
		doneCh:          make(chan struct{}),
		readyCh:         make(chan struct{}),
	}
	sv.watchParentCancel(ctx)

	parent := ctx
	return context.WithValue(ctx, supervisorKey{}, sv), func() context.Context {
		sv.close()
		return parent
	}
}

// FromContext returns the supervisor installed by WithSupervisor.
func FromContext(ctx context.Context) (*Supervisor, error) {
	sv, ok := ctx.Value(supervisorKey{}).(*Supervisor)
	if !ok {
		return nil, ErrNoSupervisor
	}
	return sv, nil
}

// Go runs fn on a new goroutine under the supervisor found in ctx. Without a
// supervisor the goroutine runs unsupervised, with panics logged to the global
// zap logger. It reports false if the supervisor was already torn down.
func Go(ctx context.Context, fn func(context.Context)) bool {
	sv, err := FromContext(ctx)
	if err != nil {
		go func() {
			defer recoverAndLog(zap.L())
			fn(ctx)
		}()
		return true
	}
	return sv.Go(ctx, fn)
}

// Supervisor tracks the goroutines it started so they can be cancelled
// together and joined on teardown.
type Supervisor struct {
	logger *zap.Logger
	wg     sync.WaitGroup

	mu              sync.Mutex
	nextID          uint64
	childrenCancels map[uint64]context.CancelFunc
	closed          bool

	doneCh    chan struct{}
	readyCh   chan struct{}
	closeOnce sync.Once
}

// Go starts fn with a child of ctx. It reports false after teardown.
func (s *Supervisor) Go(ctx context.Context, fn func(context.Context)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	childCtx, cancel := context.WithCancel(ctx)
	id := s.nextID
	s.nextID++
	s.childrenCancels[id] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.forget(id)
		defer recoverAndLog(s.logger)
		fn(childCtx)
	}()
	return true
}

// Running reports the number of live children.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.childrenCancels)
}

func (s *Supervisor) forget(id uint64) {
	s.mu.Lock()
	cancel, ok := s.childrenCancels[id]
	delete(s.childrenCancels, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Supervisor) cancelChildren() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.childrenCancels))
	for _, cancel := range s.childrenCancels {
		cancels = append(cancels, cancel)
	}
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// watchParentCancel propagates cancellation of the parent context to every
// live child until the supervisor is closed.
func (s *Supervisor) watchParentCancel(parentContext context.Context) {
	go func() {
		close(s.readyCh)
		select {
		case <-parentContext.Done():
			s.logger.Info("context cancelled, cancelling all routines")
			s.cancelChildren()
		case <-s.doneCh:
		}
	}()
	<-s.readyCh
}

// close blocks until all children complete.
func (s *Supervisor) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.logger.Debug("waiting for all routines to finish")
		s.wg.Wait()
		close(s.doneCh)
		s.logger.Debug("all routines finished")
	})
}

func recoverAndLog(logger *zap.Logger) {
	if r := recover(); r != nil {
		logger.Error("panic in child routine", zap.Any("error", r))
	}
}
