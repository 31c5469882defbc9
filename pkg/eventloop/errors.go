package eventloop

import "errors"

var (
	// ErrLoopClosed is returned when an operation is attempted on a closed loop.
	ErrLoopClosed = errors.New("eventloop: loop is closed")

	// ErrCallbackPanic wraps a value recovered from a panicking callback.
	ErrCallbackPanic = errors.New("eventloop: callback panicked")
)
