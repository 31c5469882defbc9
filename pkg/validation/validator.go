package validation

import (
	"context"
	"fmt"
)

// Mode tells the invoker how a validator reports its outcome.
type Mode int

const (
	// ModeSync validators return their outcome from the call.
	ModeSync Mode = iota + 1
	// ModeAsync validators report through resolve/reject at any later point.
	ModeAsync
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	}
	return "unknown"
}

// Result is the tagged return value of a synchronous validator.
// The zero value is Valid.
type Result struct {
	invalid bool
	payload []any
}

// Valid accepts the input.
func Valid() Result {
	return Result{}
}

// Invalid rejects the input. Payload entries, typically messages, are
// appended to the round state in order.
func Invalid(payload ...any) Result {
	return Result{invalid: true, payload: payload}
}

// IsValid reports whether r accepts the input.
func (r Result) IsValid() bool {
	return !r.invalid
}

// Payload returns the payload carried by an Invalid result.
func (r Result) Payload() []any {
	return r.payload
}

// SyncFunc is a synchronous validator. A non-nil error marks the round as
// Error with the error message as payload; a panic is treated the same way.
type SyncFunc[T any] func(value T) (Result, error)

// ResolveFunc completes an asynchronous validation. An optional payload
// is attached to an invalid verdict.
type ResolveFunc func(valid bool, payload ...any)

// RejectFunc reports that an asynchronous validation could not complete.
type RejectFunc func(payload any)

// AsyncFunc is an asynchronous validator. Exactly one of resolve or reject
// should be called, once, from any goroutine.
type AsyncFunc[T any] func(value T, resolve ResolveFunc, reject RejectFunc)

// AsyncContextFunc is an AsyncFunc that also receives a context which is
// cancelled once its round is superseded or the unit is closed. The engine
// does not abort the work; the context only lets the validator stop early.
type AsyncContextFunc[T any] func(ctx context.Context, value T, resolve ResolveFunc, reject RejectFunc)

// Validator describes one validation procedure. Its mode is fixed by the
// constructor that built it.
type Validator[T any] struct {
	name  string
	mode  Mode
	sync  SyncFunc[T]
	async AsyncContextFunc[T]
}

// Sync wraps a synchronous validator.
func Sync[T any](fn SyncFunc[T]) Validator[T] {
	v := Validator[T]{mode: ModeSync}
	if fn != nil {
		v.sync = fn
	}
	return v
}

// Check wraps a predicate: true is Valid, false is Invalid with no payload.
func Check[T any](fn func(value T) bool) Validator[T] {
	if fn == nil {
		return Validator[T]{mode: ModeSync}
	}
	return Sync(func(value T) (Result, error) {
		if fn(value) {
			return Valid(), nil
		}
		return Invalid(), nil
	})
}

// Message wraps a validator that returns an empty string for valid input
// and a message otherwise.
func Message[T any](fn func(value T) string) Validator[T] {
	if fn == nil {
		return Validator[T]{mode: ModeSync}
	}
	return Sync(func(value T) (Result, error) {
		if msg := fn(value); msg != "" {
			return Invalid(msg), nil
		}
		return Valid(), nil
	})
}

// Async wraps an asynchronous validator.
func Async[T any](fn AsyncFunc[T]) Validator[T] {
	if fn == nil {
		return Validator[T]{mode: ModeAsync}
	}
	return AsyncContext(func(_ context.Context, value T, resolve ResolveFunc, reject RejectFunc) {
		fn(value, resolve, reject)
	})
}

// AsyncContext wraps a context-aware asynchronous validator.
func AsyncContext[T any](fn AsyncContextFunc[T]) Validator[T] {
	return Validator[T]{mode: ModeAsync, async: fn}
}

// Infer builds a validator from a plain function, choosing the mode from
// its signature once at construction. Supported shapes:
//
//	func(T)                          sync, always valid
//	func(T) bool                     sync predicate
//	func(T) string                   sync, non-empty string is the invalid message
//	func(T) error                    sync, non-nil error is an Error outcome
//	func(T) (Result, error)          sync
//	func(T, ResolveFunc)             async
//	func(T, ResolveFunc, RejectFunc) async
//
// Any other value yields ErrUnsupportedSignature naming its type.
func Infer[T any](fn any) (Validator[T], error) {
	switch f := fn.(type) {
	case nil:
		return Validator[T]{}, ErrNilValidator
	case func(T):
		return Sync(func(value T) (Result, error) {
			f(value)
			return Valid(), nil
		}), nil
	case func(T) bool:
		return Check(f), nil
	case func(T) string:
		return Message(f), nil
	case func(T) error:
		return Sync(func(value T) (Result, error) {
			return Valid(), f(value)
		}), nil
	case func(T) (Result, error):
		return Sync(f), nil
	case SyncFunc[T]:
		return Sync(f), nil
	case func(T, ResolveFunc):
		return Async(func(value T, resolve ResolveFunc, _ RejectFunc) {
			f(value, resolve)
		}), nil
	case func(T, ResolveFunc, RejectFunc):
		return Async(f), nil
	case AsyncFunc[T]:
		return Async(f), nil
	case Validator[T]:
		return f, nil
	}
	return Validator[T]{}, &ErrUnsupportedSignature{Type: fmt.Sprintf("%T", fn)}
}

// MustInfer is like Infer but panics on an unsupported signature.
func MustInfer[T any](fn any) Validator[T] {
	v, err := Infer[T](fn)
	if err != nil {
		panic(err)
	}
	return v
}

// Named attaches a name used in logs.
func (v Validator[T]) Named(name string) Validator[T] {
	v.name = name
	return v
}

// Name returns the validator name, if any.
func (v Validator[T]) Name() string {
	return v.name
}

// Mode returns the validator mode.
func (v Validator[T]) Mode() Mode {
	return v.mode
}

func (v Validator[T]) check() error {
	switch v.mode {
	case ModeSync:
		if v.sync == nil {
			return ErrNilValidator
		}
	case ModeAsync:
		if v.async == nil {
			return ErrNilValidator
		}
	default:
		return ErrNilValidator
	}
	return nil
}

func (v Validator[T]) dependency() dependencySpec[T] {
	return dependencySpec[T]{validator: &v}
}

// Dependency is one entry in a unit's ordered dependency list: either a
// Validator or a Parent. The order determines payload concatenation.
type Dependency[T any] interface {
	dependency() dependencySpec[T]
}

type dependencySpec[T any] struct {
	validator *Validator[T]
	parent    Source
}

type parentDependency[T any] struct {
	src Source
}

func (p parentDependency[T]) dependency() dependencySpec[T] {
	return dependencySpec[T]{parent: p.src}
}

// Parent lists another unit (or registry handle) as a dependency. Its
// current state takes part in every round at this position.
func Parent[T any](src Source) Dependency[T] {
	return parentDependency[T]{src: src}
}
