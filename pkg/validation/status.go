package validation

import "slices"

// Status is the externally observed validation status of a unit or registry.
// The literal values are part of the public contract.
type Status string

const (
	// StatusError means a validator failed to evaluate the input.
	StatusError Status = "error"
	// StatusQueued means input was accepted and waits for the throttle window.
	StatusQueued Status = "queued"
	// StatusValidating means validators were invoked and are awaiting responses.
	StatusValidating Status = "validating"
	// StatusInvalid means a validator rejected the input.
	StatusInvalid Status = "invalid"
	// StatusValid means every validator accepted the input.
	StatusValid Status = "valid"
)

// precedence lists statuses from strongest to weakest.
var precedence = [...]Status{StatusError, StatusQueued, StatusValidating, StatusInvalid, StatusValid}

// Statuses returns every status in precedence order.
func Statuses() []Status {
	return slices.Clone(precedence[:])
}

// Rank returns the status position in the precedence order; lower wins.
// Unknown statuses rank below Valid.
func (s Status) Rank() int {
	for i, p := range precedence {
		if p == s {
			return i
		}
	}
	return len(precedence)
}

// Outranks reports whether s takes precedence over other when merged.
func (s Status) Outranks(other Status) bool {
	return s.Rank() < other.Rank()
}

// Resolved reports whether s is a terminal status for a round.
func (s Status) Resolved() bool {
	switch s {
	case StatusValid, StatusInvalid, StatusError:
		return true
	}
	return false
}

// Pending reports whether s is a transient in-progress status.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusValidating
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.Rank() < len(precedence)
}

func (s Status) String() string {
	return string(s)
}

// Highest folds statuses by precedence starting from Valid.
func Highest(statuses ...Status) Status {
	out := StatusValid
	for _, s := range statuses {
		if s.Outranks(out) {
			out = s
		}
	}
	return out
}

// State is one observed transition: a status plus the ordered payloads
// collected from Invalid and Error outcomes.
type State struct {
	Status  Status
	Payload []any
}

// Messages renders payload entries that are strings or fmt.Stringers.
// Other entries are skipped.
func (s State) Messages() []string {
	out := make([]string, 0, len(s.Payload))
	for _, p := range s.Payload {
		switch v := p.(type) {
		case string:
			out = append(out, v)
		case interface{ String() string }:
			out = append(out, v.String())
		case error:
			out = append(out, v.Error())
		}
	}
	return out
}

func (s State) clone() State {
	return State{Status: s.Status, Payload: slices.Clone(s.Payload)}
}
