package logging

import "sync"

// RingBuffer is a thread-safe bounded buffer that keeps the most recent
// entries. Once full, every Write evicts the oldest entry.
type RingBuffer[T any] struct {
	entries []T
	head    int
	count   int
	mu      sync.RWMutex
}

// NewRingBuffer creates a ring buffer holding at most size entries.
// A non-positive size is treated as 1.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{entries: make([]T, size)}
}

// Write appends an entry, overwriting the oldest one when the buffer is full.
func (rb *RingBuffer[T]) Write(entry T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = entry
	rb.head = (rb.head + 1) % len(rb.entries)
	if rb.count < len(rb.entries) {
		rb.count++
	}
}

// ReadAll returns a copy of all entries, oldest first.
func (rb *RingBuffer[T]) ReadAll() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]T, rb.count)
	if rb.count == 0 {
		return result
	}

	if rb.count < len(rb.entries) {
		copy(result, rb.entries[:rb.count])
		return result
	}

	n := copy(result, rb.entries[rb.head:])
	copy(result[n:], rb.entries[:rb.head])
	return result
}

// Count returns the number of entries currently held.
func (rb *RingBuffer[T]) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the maximum number of entries.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.entries)
}

// Reset drops all entries.
func (rb *RingBuffer[T]) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T
	for i := range rb.entries {
		rb.entries[i] = zero
	}
	rb.head = 0
	rb.count = 0
}
