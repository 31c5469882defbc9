package eventloop

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report recovered callback panics.
// Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithInitialCapacity pre-allocates the task queue.
func WithInitialCapacity(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.tasks = make([]func(), 0, n)
		}
	}
}

// Loop is a Scheduler backed by a single goroutine.
// Post and AfterFunc are safe for concurrent use.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{} // buffered, size 1; coalesces wake-ups
	done   chan struct{}
	logger *slog.Logger
}

// New starts a loop goroutine and returns its handle.
// Close must be called to release the goroutine.
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:  make([]func(), 0, 64),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

// Post enqueues fn. Returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// AfterFunc posts fn after d elapses.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(max(d, 0), func() {
		l.Post(func() {
			if t.fired.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Close stops accepting work, runs the callbacks already queued and waits
// for the loop goroutine to exit. Close is idempotent.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	<-l.done
	return nil
}

// Sync posts fn and blocks until it has run. It returns ErrLoopClosed if
// the loop rejected the callback. Sync must not be called from a loop
// callback.
func (l *Loop) Sync(fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrLoopClosed
	}
	<-ran
	return nil
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		fn, ok, closed := l.next()
		if ok {
			l.exec(fn)
			continue
		}
		if closed {
			return
		}
		<-l.signal
	}
}

// next pops the front task. closed is reported only once the queue is empty.
func (l *Loop) next() (fn func(), ok bool, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false, l.closed
	}

	fn = l.tasks[0]
	l.tasks[0] = nil
	if len(l.tasks) == 1 {
		l.tasks = l.tasks[:0]
	} else {
		l.tasks = l.tasks[1:]
	}
	return fn, true, false
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panicked",
				slog.String("component", "eventloop"),
				slog.Any("error", fmt.Errorf("%w: %v", ErrCallbackPanic, r)),
			)
		}
	}()
	fn()
}

type loopTimer struct {
	timer *time.Timer
	fired atomic.Bool
}

func (t *loopTimer) Stop() bool {
	if !t.fired.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return true
}
