// Package eventloop provides a single-threaded, callback-driven scheduler
// used by the validation engine to serialize every state transition.
//
// A Scheduler runs posted callbacks one at a time, in FIFO order, and fires
// timers by posting their callbacks into the same queue. Code executed from
// a scheduler callback therefore never races with other callbacks of the
// same scheduler and needs no locks.
//
// Two implementations are provided:
//
//   - Loop drives the queue from a dedicated goroutine and uses wall-clock
//     timers. Post may be called from any goroutine and never blocks.
//   - Manual owns a virtual clock and only runs callbacks when the caller
//     invokes Flush or Advance. It makes debounce and async behaviour fully
//     deterministic in tests.
//
// # Usage
//
//	loop := eventloop.New(eventloop.WithLogger(log))
//	defer loop.Close()
//
//	loop.Post(func() {
//	    // runs on the loop goroutine
//	})
//
//	timer := loop.AfterFunc(50*time.Millisecond, func() {
//	    // also runs on the loop goroutine
//	})
//	timer.Stop()
//
// In tests:
//
//	m := eventloop.NewManual()
//	m.AfterFunc(10*time.Millisecond, fn)
//	m.Advance(10 * time.Millisecond) // fn runs here
//
// # Error Handling
//
// A panicking callback is recovered and logged; the loop keeps running.
// Post on a closed Loop returns false and drops the callback.
package eventloop
