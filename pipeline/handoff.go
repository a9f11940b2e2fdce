package pipeline

import (
	"sync"
	"sync/atomic"
)

// Slot is a single-slot mailbox with overwrite semantics.
//
//   - Put never blocks; a value not yet taken is replaced (newest wins).
//   - Take blocks until a value is present or the slot is closed.
//   - One producer, one consumer. Not a queue: there is never a backlog.
type Slot[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	value  T
	full   bool
	closed bool

	drops atomic.Uint64
}

func NewSlot[T any]() *Slot[T] {
	s := &Slot[T]{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Put stores v and reports whether an unconsumed value was overwritten.
// Put on a closed slot is a no-op.
func (s *Slot[T]) Put(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	dropped := s.full
	if dropped {
		s.drops.Add(1)
	}
	s.value = v
	s.full = true
	s.cond.Signal()
	return dropped
}

// Take waits for a value. ok is false once the slot is closed.
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.full && !s.closed {
		s.cond.Wait()
	}

	var zero T
	if s.closed {
		return zero, false
	}

	v := s.value
	s.value = zero
	s.full = false
	return v, true
}

// Pending reports whether a value is waiting to be taken.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full
}

// Peek returns the pending value without consuming it.
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.full
}

// Close wakes the consumer. Idempotent.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}

func (s *Slot[T]) Drops() uint64 {
	return s.drops.Load()
}

// Latest holds the most recently completed value. Reads never block and
// keep returning the same value until a newer one is stored.
type Latest[T any] struct {
	mu    sync.Mutex
	value T
	seq   uint64
}

// Store replaces the current value and returns its sequence number (1-based).
func (l *Latest[T]) Store(v T) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = v
	l.seq++
	return l.seq
}

// Load returns the current value. ok is false until the first Store.
func (l *Latest[T]) Load() (v T, seq uint64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.seq, l.seq > 0
}
