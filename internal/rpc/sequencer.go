package rpc

import "sync/atomic"

// Sequencer hands out request ids. The first id is 1 and ids are never
// reused for the life of the Sequencer. The zero value is ready to use and
// safe for concurrent callers.
type Sequencer struct {
	last atomic.Uint64
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently issued id, or 0 if none was issued.
func (s *Sequencer) Last() uint64 {
	return s.last.Load()
}
