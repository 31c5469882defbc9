package rules

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formkit/pkg/validation"
)

// CheckFunc is a blocking check, typically a call to a remote service.
// ok reports the verdict; payload is attached to a negative verdict; a
// non-nil err turns the outcome into Error.
type CheckFunc[T any] func(ctx context.Context, value T) (ok bool, payload any, err error)

// Remote wraps fn into an asynchronous validator. Each round runs fn on
// its own goroutine with a context that is cancelled when the round is
// superseded or the unit is closed.
func Remote[T any](fn CheckFunc[T]) validation.Validator[T] {
	if fn == nil {
		return validation.AsyncContext[T](nil)
	}

	return validation.AsyncContext(func(ctx context.Context, value T, resolve validation.ResolveFunc, reject validation.RejectFunc) {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					reject(fmt.Sprint(r))
				}
			}()

			// Superseded before the goroutine started; the outcome is discarded anyway.
			if err := ctx.Err(); err != nil {
				reject(err.Error())
				return
			}

			ok, payload, err := fn(ctx, value)
			switch {
			case err != nil:
				reject(err.Error())
			case ok:
				resolve(true)
			case payload != nil:
				resolve(false, payload)
			default:
				resolve(false)
			}
		}()
	}).Named("remote")
}
