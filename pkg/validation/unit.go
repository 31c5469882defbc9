package validation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// Unit validates values of type T against an ordered list of validators and
// parent sources, and reports the merged state to its observers.
//
// All state transitions happen on the unit's scheduler. Public methods are
// safe for concurrent use.
type Unit[T any] struct {
	id       string
	name     string
	sched    eventloop.Scheduler
	ctx      context.Context
	logger   *slog.Logger
	metrics  MetricsRecorder
	deps     []dependencySpec[T]
	own      int
	hasAsync bool
	throttle time.Duration
	seq      sequencer

	mu     sync.Mutex
	closed bool
	seeded bool

	snapshot atomic.Pointer[State]

	// Owned by the scheduler.
	debounce    *debouncer[T]
	parents     []*State
	unsubs      []func()
	current     *round
	startedAt   time.Time
	cancelRound context.CancelFunc
	last        State
	emitted     bool
	observers   []StateFunc
	subs        watchers
	done        DoneFunc
	doneSeq     uint64
	shut        bool
}

// New builds a unit. onChange receives every non-duplicate transition.
// deps lists validators and parents; their order fixes payload order.
func New[T any](onChange StateFunc, deps []Dependency[T], opts ...Option) (*Unit[T], error) {
	if onChange == nil {
		return nil, ErrNilObserver
	}
	o := defaultOptions().apply(opts)
	return newUnit(uuid.NewString(), o, deps, append([]StateFunc{onChange}, o.observers...))
}

// MustNew is like New but panics on a usage error.
func MustNew[T any](onChange StateFunc, deps []Dependency[T], opts ...Option) *Unit[T] {
	u, err := New(onChange, deps, opts...)
	if err != nil {
		panic(err)
	}
	return u
}

func newUnit[T any](id string, o *options, deps []Dependency[T], observers []StateFunc) (*Unit[T], error) {
	if len(deps) == 0 {
		return nil, ErrNoDependencies
	}
	if o.throttle < 0 {
		return nil, ErrInvalidThrottle
	}

	specs := make([]dependencySpec[T], len(deps))
	own, hasAsync := 0, false
	for i, d := range deps {
		if d == nil {
			return nil, &ErrDependency{Index: i, Err: ErrNilValidator}
		}
		spec := d.dependency()
		switch {
		case spec.validator != nil:
			if err := spec.validator.check(); err != nil {
				return nil, &ErrDependency{Index: i, Err: err}
			}
			own++
			if spec.validator.mode == ModeAsync {
				hasAsync = true
			}
		case isNilSource(spec.parent):
			return nil, &ErrDependency{Index: i, Err: ErrNilParent}
		}
		specs[i] = spec
	}

	var initial T
	if o.hasInitial {
		if own == 0 {
			return nil, ErrNoValidators
		}
		v, ok := o.initial.(T)
		if !ok {
			return nil, fmt.Errorf("validation: initial value has type %T, unit expects %T", o.initial, initial)
		}
		initial = v
	}

	u := &Unit[T]{
		id:        id,
		name:      o.name,
		sched:     o.sched,
		ctx:       o.ctx,
		metrics:   o.metrics,
		deps:      specs,
		own:       own,
		hasAsync:  hasAsync,
		throttle:  o.throttle,
		parents:   make([]*State, len(specs)),
		observers: observers,
	}
	u.logger = o.logger.With(
		logger.Component("validation"),
		logger.UnitID(id),
		logger.UnitName(o.name),
	)
	u.debounce = newDebouncer(u.sched, u.throttle, u.fire)

	// A unit without own validators is pure composition: one permanent
	// round that re-folds on every parent change.
	if own == 0 {
		u.current = newRound(0, len(specs))
		u.current.started = true
	}

	for i, spec := range specs {
		if spec.parent == nil {
			continue
		}
		u.unsubs = append(u.unsubs, spec.parent.Subscribe(func(st State) {
			u.sched.Post(func() { u.onParent(i, st) })
		}))
	}

	if o.hasInitial {
		if err := u.Using(initial); err != nil {
			return nil, err
		}
	}

	return u, nil
}

func isNilSource(s Source) bool {
	if s == nil {
		return true
	}
	if n, ok := s.(interface{ isNil() bool }); ok {
		return n.isNil()
	}
	return false
}

// ID returns the unit identifier.
func (u *Unit[T]) ID() string { return u.id }

// Name returns the name set with WithName.
func (u *Unit[T]) Name() string { return u.name }

// State returns the last emitted state. ok is false before the first emission.
func (u *Unit[T]) State() (State, bool) {
	if u == nil {
		return State{}, false
	}
	st := u.snapshot.Load()
	if st == nil {
		return State{}, false
	}
	return st.clone(), true
}

// Evaluate submits value for validation. done, if not nil, receives the
// resolved state of this submission's round; it is dropped without being
// called if a newer submission supersedes it.
func (u *Unit[T]) Evaluate(value T, done DoneFunc) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrUnitClosed
	}
	if u.own == 0 {
		return ErrNoValidators
	}

	req := Request[T]{Seq: u.seq.next(), Value: value}
	if !u.sched.Post(func() { u.submit(req, done) }) {
		return eventloop.ErrLoopClosed
	}
	return nil
}

// Using seeds the unit with an initial value. The throttle window is
// skipped and no Queued status is emitted. A unit can be seeded once.
func (u *Unit[T]) Using(value T) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrUnitClosed
	}
	if u.seeded {
		return ErrAlreadyInitialized
	}
	if u.own == 0 {
		return ErrNoValidators
	}
	u.seeded = true

	req := Request[T]{Seq: u.seq.next(), Value: value}
	if !u.sched.Post(func() { u.seed(req) }) {
		return eventloop.ErrLoopClosed
	}
	return nil
}

// Subscribe implements Source. fn receives the current state, if any, and
// then every transition. Subscribing to a nil unit is a no-op.
func (u *Unit[T]) Subscribe(fn func(State)) (unsubscribe func()) {
	if u == nil || fn == nil {
		return func() {}
	}
	return u.subscribe(fn, nil)
}

// Updates streams transitions on a buffered channel until ctx is done or
// the unit is closed. A consumer that falls behind misses states.
func (u *Unit[T]) Updates(ctx context.Context, buffer int) <-chan State {
	return updates(ctx, buffer, u.subscribe)
}

func (u *Unit[T]) subscribe(fn func(State), onClose func()) func() {
	return subscribe(u.sched, &u.subs, func() bool { return u.shut }, u.currentState, fn, onClose)
}

func (u *Unit[T]) currentState() (State, bool) {
	return u.last, u.emitted
}

func (u *Unit[T]) isNil() bool { return u == nil }

// Close detaches the unit from its parents, cancels in-flight rounds and
// stops reporting. Later outcomes are discarded. Close is idempotent.
func (u *Unit[T]) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	u.sched.Post(u.shutdown)
	return nil
}

func (u *Unit[T]) shutdown() {
	if u.shut {
		return
	}
	u.shut = true
	u.debounce.stop()
	if u.cancelRound != nil {
		u.cancelRound()
		u.cancelRound = nil
	}
	for _, unsub := range u.unsubs {
		unsub()
	}
	u.unsubs = nil
	u.current = nil
	u.done = nil
	u.observers = nil
	u.subs.close()
	u.logger.DebugContext(u.ctx, "unit closed")
}

// submit handles a raw submission from Evaluate.
func (u *Unit[T]) submit(req Request[T], done DoneFunc) {
	if u.shut {
		return
	}
	u.done, u.doneSeq = done, req.Seq

	if u.throttle > 0 {
		u.emit(State{Status: StatusQueued, Payload: []any{}})
	}
	u.debounce.push(req)
}

// seed handles Using: no throttle and no Queued.
func (u *Unit[T]) seed(req Request[T]) {
	if u.shut {
		return
	}
	u.done = nil
	u.debounce.stop()
	u.fire(req)
}

// fire runs when a request leaves the throttle window.
func (u *Unit[T]) fire(req Request[T]) {
	if u.shut {
		return
	}
	if !u.seq.isLatest(req.Seq) {
		u.logger.DebugContext(u.ctx, "request superseded before dispatch",
			logger.Sequence(req.Seq),
			logger.Latest(u.seq.latest()),
		)
		return
	}
	u.startRound(req)
}

func (u *Unit[T]) startRound(req Request[T]) {
	if u.cancelRound != nil {
		u.cancelRound()
	}
	ctx, cancel := context.WithCancel(u.ctx)
	u.cancelRound = cancel

	if u.hasAsync {
		u.emit(State{Status: StatusValidating, Payload: []any{}})
	}

	r := newRound(req.Seq, len(u.deps))
	u.current = r
	u.startedAt = u.sched.Now()

	for i, d := range u.deps {
		if d.parent != nil {
			if p := u.parents[i]; p != nil {
				r.set(i, *p)
			}
			continue
		}
		invoke(ctx, d.validator, req, u.sched.Post,
			func(o Outcome) { u.accept(r, i, o) },
			func() { u.ignored(d.validator, i, req.Seq) },
		)
	}

	r.started = true
	u.settle(r)
}

// accept records one validator outcome for round r.
func (u *Unit[T]) accept(r *round, i int, o Outcome) {
	if u.shut || r != u.current || !u.seq.isLatest(o.Seq) {
		u.logger.DebugContext(u.ctx, "stale outcome discarded",
			logger.Dependency(i),
			logger.Sequence(o.Seq),
			logger.Latest(u.seq.latest()),
			logger.Status(o.Status),
		)
		u.metrics.RecordStale(u.ctx, u.label())
		return
	}
	if r.slots[i] != nil {
		return
	}
	r.set(i, o.state())
	if r.started {
		u.settle(r)
	}
}

// onParent caches a parent's state and re-folds the live round.
func (u *Unit[T]) onParent(i int, st State) {
	if u.shut {
		return
	}
	cached := st.clone()
	u.parents[i] = &cached

	r := u.current
	if r == nil {
		return
	}
	// A newer request is pending dispatch; it picks the cached state up.
	if r.seq != 0 && !u.seq.isLatest(r.seq) {
		return
	}
	r.set(i, cached)
	if r.started {
		u.settle(r)
	}
}

// settle emits the folded state once every slot of r is filled.
func (u *Unit[T]) settle(r *round) {
	if !r.complete() {
		return
	}
	st := fold(r.states())
	u.emit(st)

	if !st.Status.Resolved() {
		return
	}
	if !r.settled {
		r.settled = true
		u.metrics.RecordRound(u.ctx, u.label(), st.Status, u.sched.Now().Sub(u.startedAt))
	}
	if u.done != nil && u.doneSeq == r.seq {
		done := u.done
		u.done = nil
		u.call(func() { done(st.clone()) })
	}
}

// emit reports st unless its status equals the last emitted one.
func (u *Unit[T]) emit(st State) {
	if u.emitted && u.last.Status == st.Status {
		return
	}
	if st.Payload == nil {
		st.Payload = []any{}
	}
	u.last = st
	u.emitted = true
	snap := st.clone()
	u.snapshot.Store(&snap)

	u.logger.DebugContext(u.ctx, "state changed",
		logger.Status(st.Status),
		logger.Sequence(u.seq.latest()),
	)
	u.metrics.RecordTransition(u.ctx, u.label(), st.Status)

	for _, obs := range u.observers {
		u.call(func() { obs(st.Status, st.clone().Payload) })
	}
	u.subs.notify(st)
}

// call runs a user callback, keeping a panic from breaking the unit.
func (u *Unit[T]) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.ErrorContext(u.ctx, "callback panicked",
				logger.Error(fmt.Errorf("%w: %s", eventloop.ErrCallbackPanic, panicMessage(r))),
			)
		}
	}()
	fn()
}

func (u *Unit[T]) ignored(v *Validator[T], i int, seq uint64) {
	u.logger.WarnContext(u.ctx, "async validator reported more than once",
		logger.Dependency(i),
		logger.Sequence(seq),
		slog.String("validator", v.name),
	)
}

func (u *Unit[T]) label() string {
	if u.name != "" {
		return u.name
	}
	return u.id
}
