package handlers

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scope pairs a dispatcher with the teardown that stops its workers.
type Scope[T any] struct {
	ID         string
	Dispatcher WorkerDispatcher[T]

	logger    *zap.Logger
	closeFn   func()
	closeOnce sync.Once
}

// Close runs the teardown once.
func (s *Scope[T]) Close() {
	s.closeOnce.Do(func() {
		s.closeFn()
		s.logger.Debug("dispatch scope closed", zap.String("scope_id", s.ID))
	})
}

func NewScope[T any](
	dispatcher WorkerDispatcher[T],
	logger *zap.Logger,
	teardown func(),
) *Scope[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scope[T]{
		ID:         uuid.NewString(),
		Dispatcher: dispatcher,
		logger:     logger,
		closeFn:    teardown,
	}
}
