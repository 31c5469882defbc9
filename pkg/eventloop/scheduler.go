package eventloop

import "time"

// Scheduler serializes callbacks. All callbacks posted to the same
// scheduler, including timer callbacks, run one at a time.
type Scheduler interface {
	// Post enqueues fn for execution. It never blocks and returns false
	// if the scheduler no longer accepts work.
	Post(fn func()) bool

	// AfterFunc posts fn once d has elapsed. A zero or negative d fires on
	// the next turn.
	AfterFunc(d time.Duration, fn func()) Timer

	// Now reports the scheduler's notion of the current time.
	Now() time.Time
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if the callback already ran or was stopped.
	// Stop must be called from a callback of the owning scheduler for the
	// guarantee to hold against an already-queued callback.
	Stop() bool
}
