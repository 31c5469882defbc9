package validation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// Registry combines the statuses of its member units into one status, the
// highest-precedence status among members that have reported. An empty
// registry is Valid. Payloads are not combined.
type Registry struct {
	id       string
	sched    eventloop.Scheduler
	ctx      context.Context
	logger   *slog.Logger
	metrics  MetricsRecorder
	defaults []Option
	onChange CombinedFunc
	size     atomic.Int64
	snapshot atomic.Pointer[Status]

	// Owned by the scheduler.
	members map[string]Status
	last    Status
	emitted bool
	subs    watchers
}

// NewRegistry builds a registry. onChange receives every combined status
// transition. opts become defaults for registered units; the scheduler
// is shared by all members.
func NewRegistry(onChange CombinedFunc, opts ...Option) (*Registry, error) {
	if onChange == nil {
		return nil, ErrNilObserver
	}
	o := defaultOptions().apply(opts)
	id := uuid.NewString()

	return &Registry{
		id:       id,
		sched:    o.sched,
		ctx:      o.ctx,
		logger:   o.logger.With(logger.Component("registry"), logger.UnitID(id)),
		metrics:  o.metrics,
		defaults: append([]Option(nil), opts...),
		onChange: onChange,
		members:  make(map[string]Status),
	}, nil
}

// ID returns the registry identifier.
func (r *Registry) ID() string { return r.id }

// Len returns the number of registered handles.
func (r *Registry) Len() int { return int(r.size.Load()) }

// Status returns the last combined status. ok is false before the first
// member reports.
func (r *Registry) Status() (Status, bool) {
	st := r.snapshot.Load()
	if st == nil {
		return "", false
	}
	return *st, true
}

// Subscribe implements Source, so a registry can be a parent of a unit.
// Delivered states carry the combined status and no payload.
func (r *Registry) Subscribe(fn func(State)) (unsubscribe func()) {
	if r == nil || fn == nil {
		return func() {}
	}
	return r.subscribe(fn, nil)
}

// Updates streams combined states until ctx is done.
func (r *Registry) Updates(ctx context.Context, buffer int) <-chan State {
	return updates(ctx, buffer, r.subscribe)
}

func (r *Registry) subscribe(fn func(State), onClose func()) func() {
	return subscribe(r.sched, &r.subs, func() bool { return false }, func() (State, bool) {
		return State{Status: r.last, Payload: []any{}}, r.emitted
	}, fn, onClose)
}

func (r *Registry) isNil() bool { return r == nil }

// Register builds a unit bound to reg and adds it as a member. Options
// override the registry defaults, except the scheduler.
func Register[T any](reg *Registry, deps []Dependency[T], opts ...Option) (*Handle[T], error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}

	id := uuid.NewString()
	o := defaultOptions()
	o.apply(reg.defaults)
	o.observers = nil
	o.apply(opts)
	o.sched = reg.sched

	observers := append([]StateFunc{func(status Status, _ []any) {
		reg.memberChanged(id, status)
	}}, o.observers...)

	unit, err := newUnit(id, o, deps, observers)
	if err != nil {
		return nil, err
	}
	reg.size.Add(1)
	reg.logger.DebugContext(reg.ctx, "unit registered", logger.UnitID(id), logger.UnitName(o.name))

	return &Handle[T]{unit: unit, reg: reg}, nil
}

// memberChanged runs on the registry scheduler.
func (r *Registry) memberChanged(id string, status Status) {
	r.members[id] = status
	r.recompute()
}

func (r *Registry) remove(id string) {
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	r.recompute()
}

func (r *Registry) recompute() {
	statuses := make([]Status, 0, len(r.members))
	for _, s := range r.members {
		statuses = append(statuses, s)
	}
	combined := Highest(statuses...)

	if r.emitted && r.last == combined {
		return
	}
	r.last = combined
	r.emitted = true
	r.snapshot.Store(&combined)

	r.logger.DebugContext(r.ctx, "combined status changed",
		logger.Status(combined),
		slog.Int("members", len(r.members)),
	)
	r.metrics.RecordTransition(r.ctx, "registry", combined)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.ErrorContext(r.ctx, "callback panicked",
					logger.Error(fmt.Errorf("%w: %s", eventloop.ErrCallbackPanic, panicMessage(rec))),
				)
			}
		}()
		r.onChange(combined)
	}()
	r.subs.notify(State{Status: combined, Payload: []any{}})
}

// Handle is a registered unit. After Unregister it rejects further use.
type Handle[T any] struct {
	unit *Unit[T]
	reg  *Registry

	mu           sync.Mutex
	unregistered bool
}

// ID returns the identifier shared by the handle and its unit.
func (h *Handle[T]) ID() string { return h.unit.ID() }

// Unit returns the underlying unit.
func (h *Handle[T]) Unit() *Unit[T] { return h.unit }

// State returns the unit's last emitted state.
func (h *Handle[T]) State() (State, bool) { return h.unit.State() }

// Evaluate submits value to the unit. See Unit.Evaluate.
func (h *Handle[T]) Evaluate(value T, done DoneFunc) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.unit.Evaluate(value, done)
}

// Using seeds the unit. See Unit.Using.
func (h *Handle[T]) Using(value T) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.unit.Using(value)
}

// Subscribe implements Source.
func (h *Handle[T]) Subscribe(fn func(State)) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}
	return h.unit.Subscribe(fn)
}

// Updates streams the unit's transitions. See Unit.Updates.
func (h *Handle[T]) Updates(ctx context.Context, buffer int) <-chan State {
	return h.unit.Updates(ctx, buffer)
}

func (h *Handle[T]) isNil() bool { return h == nil }

// Unregister removes the unit from the registry, closes it and recomputes
// the combined status. A second call returns ErrUnregistered.
func (h *Handle[T]) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unregistered {
		return ErrUnregistered
	}
	h.unregistered = true

	if err := h.unit.Close(); err != nil {
		return err
	}
	id := h.unit.ID()
	h.reg.sched.Post(func() { h.reg.remove(id) })
	h.reg.size.Add(-1)
	h.reg.logger.DebugContext(h.reg.ctx, "unit unregistered", logger.UnitID(id))
	return nil
}

func (h *Handle[T]) check() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unregistered {
		return ErrUnregistered
	}
	return nil
}
