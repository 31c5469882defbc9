package validation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// StateFunc observes unit transitions.
type StateFunc func(status Status, payload []any)

// DoneFunc receives the resolved state of the round started by one
// Evaluate call. It is never called for a superseded round.
type DoneFunc func(State)

// CombinedFunc observes registry-level status transitions.
type CombinedFunc func(status Status)

// Option configures a unit or a registry.
type Option func(*options)

type options struct {
	throttle   time.Duration
	initial    any
	hasInitial bool
	sched      eventloop.Scheduler
	logger     *slog.Logger
	metrics    MetricsRecorder
	name       string
	ctx        context.Context
	observers  []StateFunc
}

func defaultOptions() *options {
	return &options{
		logger:  logger.Nop(),
		metrics: NoopMetrics{},
		ctx:     context.Background(),
	}
}

func (o *options) apply(opts []Option) *options {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.sched == nil {
		o.sched = DefaultScheduler()
	}
	return o
}

// WithThrottle sets the debounce window. Zero disables debouncing and
// suppresses the Queued status.
func WithThrottle(d time.Duration) Option {
	return func(o *options) { o.throttle = d }
}

// WithInitialValue seeds the unit once at construction, bypassing the
// throttle window. The value must have the unit's value type.
func WithInitialValue(v any) Option {
	return func(o *options) {
		o.initial = v
		o.hasInitial = true
	}
}

// WithScheduler sets the scheduler that serializes the unit. Units that
// compose each other may use different schedulers; sharing one avoids an
// extra hop per parent update. Registry members always use the registry's.
func WithScheduler(s eventloop.Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.sched = s
		}
	}
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. Nil recorders are ignored.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithName names the unit in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithContext sets the base context for async validator rounds, logs and
// metrics. Cancelling it cancels every in-flight round context.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithObserver adds a transition observer in addition to the primary one.
func WithObserver(fn StateFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

var (
	defaultLoop     *eventloop.Loop
	defaultLoopOnce sync.Once
)

// DefaultScheduler returns the process-wide loop used when no scheduler is
// configured. It lives for the lifetime of the process.
func DefaultScheduler() eventloop.Scheduler {
	defaultLoopOnce.Do(func() {
		defaultLoop = eventloop.New()
	})
	return defaultLoop
}
