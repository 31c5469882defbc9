package validation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
)

// Source is anything a unit can list as a parent: it replays its current
// state on subscribe and then reports every transition until unsubscribed.
// Units, registry handles and registries are sources.
type Source interface {
	Subscribe(fn func(State)) (unsubscribe func())
}

type watcher struct {
	id      uint64
	fn      func(State)
	onClose func()
}

// watchers is a subscriber set owned by one scheduler. add, remove, notify
// and close must run on that scheduler.
type watchers struct {
	ids  atomic.Uint64
	list []watcher
}

func (w *watchers) add(fn func(State), onClose func()) uint64 {
	id := w.ids.Add(1)
	w.list = append(w.list, watcher{id: id, fn: fn, onClose: onClose})
	return id
}

func (w *watchers) remove(id uint64) {
	for i, s := range w.list {
		if s.id == id {
			w.list = append(w.list[:i], w.list[i+1:]...)
			if s.onClose != nil {
				s.onClose()
			}
			return
		}
	}
}

func (w *watchers) notify(st State) {
	for _, s := range append([]watcher(nil), w.list...) {
		s.fn(st.clone())
	}
}

func (w *watchers) close() {
	list := w.list
	w.list = nil
	for _, s := range list {
		if s.onClose != nil {
			s.onClose()
		}
	}
}

// subscribe registers fn on sched, replaying current() when ok. The
// returned cancel is idempotent and safe from any goroutine.
func subscribe(
	sched eventloop.Scheduler,
	set *watchers,
	closed func() bool,
	current func() (State, bool),
	fn func(State),
	onClose func(),
) func() {
	var (
		mu        sync.Mutex
		id        uint64
		cancelled bool
	)

	sched.Post(func() {
		mu.Lock()
		if cancelled {
			mu.Unlock()
			if onClose != nil {
				onClose()
			}
			return
		}
		mu.Unlock()

		if closed() {
			if onClose != nil {
				onClose()
			}
			return
		}

		mu.Lock()
		id = set.add(fn, onClose)
		mu.Unlock()

		if st, ok := current(); ok {
			fn(st.clone())
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			cancelled = true
			mu.Unlock()
			sched.Post(func() {
				mu.Lock()
				wid := id
				mu.Unlock()
				if wid != 0 {
					set.remove(wid)
				}
			})
		})
	}
}

// updates adapts a Source to a buffered channel. Slow consumers miss
// intermediate states rather than blocking the producer. The channel is
// closed when ctx is done or the source shuts down.
func updates(ctx context.Context, buffer int, sub func(fn func(State), onClose func()) func()) <-chan State {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	done := make(chan struct{})

	var closeOnce sync.Once
	onClose := func() {
		closeOnce.Do(func() {
			close(done)
			close(ch)
		})
	}

	cancel := sub(func(st State) {
		select {
		case ch <- st:
		default:
		}
	}, onClose)

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch
}
