package validation

import (
	"time"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
)

// debouncer emits only the most recent request after wait of silence.
// A zero wait passes requests through in the same turn. All methods run
// on the owning scheduler.
type debouncer[T any] struct {
	sched   eventloop.Scheduler
	wait    time.Duration
	fire    func(Request[T])
	timer   eventloop.Timer
	pending *Request[T]
}

func newDebouncer[T any](sched eventloop.Scheduler, wait time.Duration, fire func(Request[T])) *debouncer[T] {
	return &debouncer[T]{sched: sched, wait: wait, fire: fire}
}

// push buffers req, replacing any request still waiting for the window.
func (d *debouncer[T]) push(req Request[T]) {
	if d.wait <= 0 {
		d.fire(req)
		return
	}

	d.pending = &req
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(d.wait, d.flush)
}

func (d *debouncer[T]) flush() {
	req := d.pending
	d.pending = nil
	d.timer = nil
	if req != nil {
		d.fire(*req)
	}
}

// stop drops the buffered request.
func (d *debouncer[T]) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
