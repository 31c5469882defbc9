package validation

// fold merges the per-dependency states of one round, in dependency order.
// Payloads accumulate only for Invalid and Error; the status with the
// highest precedence wins.
func fold(parts []State) State {
	agg := State{Status: StatusValid, Payload: []any{}}
	for _, p := range parts {
		switch p.Status {
		case StatusInvalid, StatusError:
			agg.Payload = append(agg.Payload, p.Payload...)
		}
		if p.Status.Outranks(agg.Status) {
			agg.Status = p.Status
		}
	}
	return agg
}

// Fold exposes the aggregation rule for callers composing states by hand.
func Fold(parts ...State) State {
	return fold(parts)
}

// round tracks the fan-in of one evaluation: a slot per dependency.
type round struct {
	seq     uint64
	slots   []*State
	started bool
	settled bool // a resolved state was emitted for this round
}

func newRound(seq uint64, n int) *round {
	return &round{seq: seq, slots: make([]*State, n)}
}

func (r *round) set(i int, st State) {
	s := st
	r.slots[i] = &s
}

// complete reports whether every dependency has answered.
func (r *round) complete() bool {
	for _, s := range r.slots {
		if s == nil {
			return false
		}
	}
	return true
}

func (r *round) states() []State {
	out := make([]State, len(r.slots))
	for i, s := range r.slots {
		out[i] = *s
	}
	return out
}
