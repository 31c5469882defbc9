// Package rules provides ready-made validators for validation units.
//
// String rules (Required, MinLength, MaxLength, Email, Matches) are
// synchronous and report a Violation payload carrying a default message
// and a translation key:
//
//	deps := []validation.Dependency[string]{
//		rules.Required(),
//		rules.MinLength(3),
//		rules.MaxLength(32),
//	}
//
// Lengths are counted in runes after NFC normalization.
//
// Remote adapts a blocking check, such as an availability lookup, into an
// asynchronous validator running on its own goroutine. Memoize and
// CachedRemote keep an LRU of recent verdicts so repeated values skip the
// call.
//
// A Schema declares rules per form field in YAML and registers one unit per
// field with a validation.Registry:
//
//	schema, err := rules.LoadSchema("signup.yaml")
//	if err != nil {
//		return err
//	}
//	fields, err := schema.Register(reg, validation.WithThrottle(200*time.Millisecond))
package rules
