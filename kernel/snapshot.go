package kernel

import "sync/atomic"

type versioned[T any] struct {
	val T
	ok  bool
	seq uint64
}

// Snapshot publishes immutable values to lock-free readers.
//
// Every Publish or Clear bumps the sequence number, so readers can tell a
// changed value from a stale one. Writers must be serialized by the caller.
type Snapshot[T any] struct {
	seq atomic.Uint64
	cur atomic.Pointer[versioned[T]]
}

// Publish stores a copy of v and returns the new sequence number.
func (s *Snapshot[T]) Publish(v T) uint64 {
	seq := s.seq.Add(1)
	s.cur.Store(&versioned[T]{val: v, ok: true, seq: seq})
	return seq
}

// Clear marks the value absent and returns the new sequence number.
func (s *Snapshot[T]) Clear() uint64 {
	seq := s.seq.Add(1)
	s.cur.Store(&versioned[T]{seq: seq})
	return seq
}

// Load returns the last published value, whether one is present, and the
// sequence number it was published under.
func (s *Snapshot[T]) Load() (v T, ok bool, seq uint64) {
	p := s.cur.Load()
	if p == nil {
		return v, false, 0
	}
	return p.val, p.ok, p.seq
}

// Seq returns the current sequence number.
func (s *Snapshot[T]) Seq() uint64 {
	return s.seq.Load()
}
