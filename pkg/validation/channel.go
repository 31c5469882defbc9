package validation

import "sync/atomic"

// Request is one evaluation request stamped by a unit's channel.
type Request[T any] struct {
	Seq   uint64
	Value T
}

// sequencer is the monotonic clock behind a unit's event channel.
// Next is linearizable, so the newest stamp is always the latest request.
type sequencer struct {
	seq atomic.Uint64
}

// next stamps a new request and makes it the latest.
func (s *sequencer) next() uint64 {
	return s.seq.Add(1)
}

// latest returns the most recent stamp, 0 before the first request.
func (s *sequencer) latest() uint64 {
	return s.seq.Load()
}

// isLatest reports whether seq belongs to the most recent request.
func (s *sequencer) isLatest(seq uint64) bool {
	return s.seq.Load() == seq
}
