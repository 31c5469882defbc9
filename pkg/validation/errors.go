package validation

import (
	"errors"
	"fmt"
)

// Usage errors. They are returned to the immediate caller and never
// delivered through the state stream.
var (
	ErrNilObserver        = errors.New("validation: state callback is required")
	ErrNoDependencies     = errors.New("validation: at least one validator or parent is required")
	ErrNilValidator       = errors.New("validation: validator function is nil")
	ErrNilParent          = errors.New("validation: parent source is nil")
	ErrInvalidThrottle    = errors.New("validation: throttle must not be negative")
	ErrAlreadyInitialized = errors.New("validation: unit can be initialized only once")
	ErrUnitClosed         = errors.New("validation: unit is closed")
	ErrUnregistered       = errors.New("validation: handle is already unregistered")
	ErrNoValidators       = errors.New("validation: unit has no own validators to evaluate")
	ErrNilRegistry        = errors.New("validation: registry is nil")
)

// ErrUnsupportedSignature is returned by Infer when a function does not
// match any validator shape.
type ErrUnsupportedSignature struct {
	Type string
}

func (e *ErrUnsupportedSignature) Error() string {
	return fmt.Sprintf("validation: synchronous validators take (value) and return nothing, bool, string or (Result, error); "+
		"asynchronous validators take (value, resolve) or (value, resolve, reject); got %s", e.Type)
}

func IsUnsupportedSignatureError(err error) bool {
	var e *ErrUnsupportedSignature
	return errors.As(err, &e)
}

// ErrDependency wraps a registration error with the offending position.
type ErrDependency struct {
	Index int
	Err   error
}

func (e *ErrDependency) Error() string {
	return fmt.Sprintf("validation: dependency %d: %v", e.Index, e.Err)
}

func (e *ErrDependency) Unwrap() error {
	return e.Err
}
