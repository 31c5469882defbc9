// Package validation is a reactive validation engine for interactive input.
//
// A Unit validates values of one type against an ordered list of
// dependencies: validators, which may be synchronous or asynchronous, and
// parent sources whose state takes part in every round. Each Evaluate call
// is stamped with a sequence number; only the latest request can produce
// a visible state, so outcomes of superseded rounds are discarded.
//
// # Statuses
//
// A round resolves to Valid, Invalid or Error. While waiting, a unit
// reports Queued (input accepted, throttle window open) and Validating
// (async validators invoked). Merging uses the precedence
//
//	Error > Queued > Validating > Invalid > Valid
//
// Payloads from Invalid and Error outcomes are concatenated in dependency
// order. Repeated statuses are not reported twice.
//
// # Usage
//
//	unit, err := validation.New(func(status validation.Status, payload []any) {
//		render(status, payload)
//	}, []validation.Dependency[string]{
//		rules.Required(),
//		rules.Remote(checkAvailable),
//	}, validation.WithThrottle(300*time.Millisecond))
//	if err != nil {
//		return err
//	}
//	_ = unit.Evaluate("alice", nil)
//
// # Registries
//
// A Registry combines the statuses of many units, one per form field for
// instance, into one status using the same precedence.
//
//	reg, _ := validation.NewRegistry(func(status validation.Status) {
//		submit.SetEnabled(status == validation.StatusValid)
//	})
//	email, _ := validation.Register(reg, []validation.Dependency[string]{rules.Email()})
//	_ = email.Evaluate(input, nil)
//
// # Scheduling
//
// Units run on an eventloop.Scheduler, by default a process-wide loop.
// Tests use eventloop.Manual to drive time and callbacks explicitly.
package validation
