package update

import "sync/atomic"

// Sequence hands out strictly increasing identifiers. The zero value starts at 1.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence whose first Next call returns start.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start - 1)
	return s
}

// Next returns the next identifier. Identifiers are never reused.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Last returns the most recently issued identifier, or start-1 if none was issued.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}
