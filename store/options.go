package store

import (
	"github.com/on-the-ground/composable_go/config"
	"github.com/on-the-ground/composable_go/effects"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// tracerName is the instrumentation scope name for store tracing.
const tracerName = "github.com/on-the-ground/composable_go/store"

type options struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	scheduler     effects.Scheduler
	recorder      any
	recordActions bool
}

func defaultOptions() options {
	return options{
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for effect failures and lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the tracer for dispatch spans. The default is the global
// OpenTelemetry tracer, which is a no-op until a provider is installed.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithScheduler delivers every effect output through sched before it is fed
// back into the store.
func WithScheduler(sched effects.Scheduler) Option {
	return func(o *options) {
		o.scheduler = sched
	}
}

// WithActionRecorder calls fn for every processed action. A must be the
// store's action type; New panics otherwise.
func WithActionRecorder[A any](fn func(ActionRecord[A])) Option {
	return func(o *options) {
		o.recorder = fn
	}
}

// WithConfig applies the store and tracing settings of cfg.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		if !cfg.Tracing.Enabled {
			o.tracer = noop.NewTracerProvider().Tracer(tracerName)
		}
		o.recordActions = cfg.Store.RecordActions
	}
}
