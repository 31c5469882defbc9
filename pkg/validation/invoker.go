package validation

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Outcome is the normalized result of one validator for one round.
type Outcome struct {
	Seq     uint64
	Status  Status
	Payload []any
}

func (o Outcome) state() State {
	return State{Status: o.Status, Payload: o.Payload}
}

// invoke runs v against req and hands the normalized outcome to report.
// Sync validators report before invoke returns. Async validators report
// through post, at most once; later resolve/reject calls are ignored and
// counted in ignored.
func invoke[T any](
	ctx context.Context,
	v *Validator[T],
	req Request[T],
	post func(fn func()) bool,
	report func(Outcome),
	ignored func(),
) {
	if v.mode == ModeSync {
		report(invokeSync(v.sync, req))
		return
	}

	var once atomic.Bool
	deliver := func(o Outcome) {
		if !once.CompareAndSwap(false, true) {
			if ignored != nil {
				ignored()
			}
			return
		}
		post(func() { report(o) })
	}

	resolve := func(valid bool, payload ...any) {
		if valid {
			deliver(Outcome{Seq: req.Seq, Status: StatusValid, Payload: payload})
			return
		}
		deliver(Outcome{Seq: req.Seq, Status: StatusInvalid, Payload: payload})
	}
	reject := func(payload any) {
		deliver(Outcome{Seq: req.Seq, Status: StatusError, Payload: []any{payload}})
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				reject(panicMessage(r))
			}
		}()
		v.async(ctx, req.Value, resolve, reject)
	}()
}

func invokeSync[T any](fn SyncFunc[T], req Request[T]) (out Outcome) {
	out.Seq = req.Seq
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusError
			out.Payload = []any{panicMessage(r)}
		}
	}()

	res, err := fn(req.Value)
	switch {
	case err != nil:
		out.Status = StatusError
		out.Payload = []any{err.Error()}
	case res.IsValid():
		out.Status = StatusValid
	default:
		out.Status = StatusInvalid
		out.Payload = res.Payload()
	}
	return out
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	}
	return fmt.Sprint(r)
}
