// SPDX-License-Identifier: MIT
/*
Package ringbuffer implements a fixed-capacity circular FIFO whose capacity
is a power of two, so slot lookup is a bit mask instead of a modulo.

The read and write cursors are unsigned and only ever increase. They are
allowed to overflow: Size is computed as write-read in modular arithmetic,
which stays correct across the wrap as long as the distance never exceeds
the capacity.

A Buffer is not safe for concurrent use. It is meant to be owned by a single
consumer, such as the render tick.
*/
package ringbuffer

import (
	"errors"
	"fmt"

	"equalizer/pkg/bitint"
)

var (
	// ErrBufferFull is returned by Push when every slot is occupied.
	ErrBufferFull = errors.New("ring buffer is full")
	// ErrBufferEmpty is returned by Pop and Top when no element is queued.
	ErrBufferEmpty = errors.New("ring buffer is empty")
)

// OpError records the operation that violated the buffer discipline.
type OpError struct {
	Op  string // "push", "pop" or "top"
	Err error
}

func (e *OpError) Error() string { return e.Op + " failed: " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// Buffer is a power-of-two sized circular FIFO.
type Buffer[T any] struct {
	data  []T
	read  uint
	write uint
}

// New allocates a Buffer with the given capacity. It panics when capacity is
// zero or not a power of two; that is a programming error, not a runtime
// condition.
func New[T any](capacity int) *Buffer[T] {
	if !bitint.IsPowerOfTwo(capacity) {
		panic(fmt.Sprintf("ringbuffer: capacity must be a power of two, got %d", capacity))
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push appends v. It fails with ErrBufferFull, leaving the contents
// untouched, when the buffer already holds Cap elements.
func (b *Buffer[T]) Push(v T) error {
	if b.Full() {
		return &OpError{Op: "push", Err: ErrBufferFull}
	}
	b.write++
	b.data[b.mask(b.write)] = v
	return nil
}

// Pop removes and returns the oldest element. The vacated slot is reset to
// the zero value so the buffer does not pin old snapshots in memory.
func (b *Buffer[T]) Pop() (T, error) {
	var zero T
	if b.Empty() {
		return zero, &OpError{Op: "pop", Err: ErrBufferEmpty}
	}
	b.read++
	idx := b.mask(b.read)
	v := b.data[idx]
	b.data[idx] = zero
	return v, nil
}

// Top returns the element the next Pop would return without removing it.
func (b *Buffer[T]) Top() (T, error) {
	if b.Empty() {
		var zero T
		return zero, &OpError{Op: "top", Err: ErrBufferEmpty}
	}
	return b.data[b.mask(b.read+1)], nil
}

// Size returns the number of queued elements.
func (b *Buffer[T]) Size() int {
	return int(b.write - b.read)
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// Full reports whether Push would fail.
func (b *Buffer[T]) Full() bool {
	return b.Size() == len(b.data)
}

// Empty reports whether Pop would fail.
func (b *Buffer[T]) Empty() bool {
	return b.read == b.write
}

func (b *Buffer[T]) mask(v uint) int {
	return bitint.Mask(v, len(b.data))
}
