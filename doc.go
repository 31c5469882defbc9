// Package formkit is a reactive validation engine for form fields.
//
// A stream of candidate values runs through debounced sync and async
// validators, and every change of the merged state is reported exactly
// once. Answers that belong to a superseded value are discarded.
//
// Packages:
//
//   - pkg/validation: units, registries, parent composition and streams
//   - pkg/rules: stock string rules, remote checks with memoization, YAML field schemas
//   - pkg/eventloop: the serial schedulers every unit runs on
//   - pkg/logger: slog factory and attribute helpers
//   - pkg/config: cached environment loading
//
// Basic usage:
//
//	unit, err := validation.New(func(status validation.Status, payload []any) {
//		render(status, payload)
//	}, []validation.Dependency[string]{
//		rules.Required(),
//		rules.MinLength(3),
//		rules.Remote(usernameAvailable),
//	}, validation.WithThrottle(300*time.Millisecond))
//	if err != nil {
//		return err
//	}
//	defer unit.Close()
//
//	unit.Evaluate("alice", nil)
package formkit
