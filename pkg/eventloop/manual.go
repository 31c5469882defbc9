package eventloop

import (
	"slices"
	"sync"
	"time"
)

// Manual is a Scheduler with a virtual clock. Callbacks only run inside
// Flush and Advance, on the calling goroutine. Post and AfterFunc are safe
// for concurrent use, so asynchronous validators may complete from other
// goroutines; their callbacks are picked up by the next Flush.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	tasks  []func()
	timers []*manualTimer
	seq    uint64
	closed bool
}

// NewManual creates a virtual-time scheduler starting at the Unix epoch.
func NewManual() *Manual {
	return &Manual{now: time.Unix(0, 0).UTC()}
}

// Post enqueues fn. Returns false after Close.
func (m *Manual) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.tasks = append(m.tasks, fn)
	return true
}

// AfterFunc schedules fn at Now()+d on the virtual clock.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{owner: m, due: m.now.Add(max(d, 0)), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Flush runs queued callbacks and timers that are already due, including
// any work they schedule for the current instant, until nothing is left.
func (m *Manual) Flush() {
	for {
		if fn, ok := m.pop(); ok {
			fn()
			continue
		}
		if !m.fireDue(m.Now()) {
			return
		}
	}
}

// Advance moves the virtual clock forward by d, firing every timer that
// becomes due in order of its deadline and flushing between firings.
func (m *Manual) Advance(d time.Duration) {
	m.Flush()

	m.mu.Lock()
	target := m.now.Add(max(d, 0))
	m.mu.Unlock()

	for m.fireDue(target) {
		m.Flush()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
	m.Flush()
}

// Pending reports the number of queued callbacks plus active timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks) + len(m.timers)
}

// Close drops all queued work and rejects further posts.
func (m *Manual) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.tasks = nil
	m.timers = nil
	return nil
}

func (m *Manual) pop() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, false
	}
	fn := m.tasks[0]
	m.tasks[0] = nil
	m.tasks = m.tasks[1:]
	return fn, true
}

// fireDue removes the earliest timer due at or before limit, moves the
// clock to its deadline and queues its callback.
func (m *Manual) fireDue(limit time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, t := range m.timers {
		if t.due.After(limit) {
			continue
		}
		if idx < 0 || t.due.Before(m.timers[idx].due) ||
			(t.due.Equal(m.timers[idx].due) && t.seq < m.timers[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return false
	}

	t := m.timers[idx]
	m.timers = slices.Delete(m.timers, idx, idx+1)
	if t.due.After(m.now) {
		m.now = t.due
	}
	t.posted = true
	m.tasks = append(m.tasks, t.run)
	return true
}

type manualTimer struct {
	owner *Manual
	due   time.Time
	seq   uint64
	fn    func()

	// guarded by owner.mu
	posted  bool
	stopped bool
	ran     bool
}

func (t *manualTimer) run() {
	m := t.owner
	m.mu.Lock()
	if t.stopped {
		m.mu.Unlock()
		return
	}
	t.ran = true
	m.mu.Unlock()
	t.fn()
}

func (t *manualTimer) Stop() bool {
	m := t.owner
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.stopped || t.ran {
		return false
	}
	t.stopped = true
	if !t.posted {
		for i, other := range m.timers {
			if other == t {
				m.timers = slices.Delete(m.timers, i, i+1)
				break
			}
		}
	}
	return true
}
