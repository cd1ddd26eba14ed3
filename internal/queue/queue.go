// Package queue provides a batched SPSC ring queue over a caller-owned
// byte buffer.
//
// The queue moves fixed-size elements between exactly one producer and
// exactly one consumer. Elements are never copied by the queue: the
// producer acquires a contiguous window into the backing buffer, writes
// in place and commits; the consumer does the same on the read side.
//
// # Safety (IMPORTANT)
//
// Batched is a Single-Producer Single-Consumer (SPSC) queue.
//   - Exactly ONE goroutine calls AcquireWrite/CommitWrite (or Write)
//   - Exactly ONE goroutine calls AcquireRead/CommitRead (or Read)
//   - A Window is valid only until the matching commit
//
// Committing without a successful acquire panics. Setting Config.Guard
// adds runtime guards that panic when a second producer or consumer
// acquires while a window is outstanding. This catches bugs early but
// adds a CAS per acquire.
//
// The queue never blocks. A full or empty queue is reported by the
// acquire methods returning false; the wait strategy belongs to the caller.
package queue

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSize is returned when a size parameter is not positive.
	ErrInvalidSize = errors.New("queue: sizes must be positive")

	// ErrBatchMismatch is returned when the slot count is not a multiple of
	// both batch sizes, or the batches could never make progress.
	ErrBatchMismatch = errors.New("queue: slot count incompatible with batch sizes")

	// ErrShortBuffer is returned when the backing buffer cannot hold
	// Slots*ElementSize bytes.
	ErrShortBuffer = errors.New("queue: backing buffer too small")
)

// Config describes the fixed geometry of a Batched queue.
type Config struct {
	// Slots is the number of slots in the ring. Only
	// Slots-EnqueueBatch of them can hold data at the same time.
	Slots int

	// EnqueueBatch is the number of slots published per CommitWrite.
	EnqueueBatch int

	// DequeueBatch is the number of slots released per CommitRead.
	DequeueBatch int

	// ElementSize is the size of one slot in bytes.
	ElementSize int

	// Guard enables the concurrent producer/consumer detectors. A side
	// counts as active from a successful acquire until its commit, so a
	// second acquire on that side panics, even from the same goroutine.
	Guard bool
}

// BufferSize returns the number of bytes the backing buffer must hold.
func (c Config) BufferSize() int {
	return c.Slots * c.ElementSize
}

// Cap returns the usable capacity in slots.
func (c Config) Cap() int {
	return c.Slots - c.EnqueueBatch
}

// Validate checks the geometry.
//
// Slots must be a multiple of both batch sizes so that the cursors always
// wrap exactly onto slot 0. DequeueBatch must not exceed the usable
// capacity, otherwise no read could ever succeed.
func (c Config) Validate() error {
	if c.Slots <= 0 || c.EnqueueBatch <= 0 || c.DequeueBatch <= 0 || c.ElementSize <= 0 {
		return fmt.Errorf("%w: slots=%d enqueue=%d dequeue=%d element=%d",
			ErrInvalidSize, c.Slots, c.EnqueueBatch, c.DequeueBatch, c.ElementSize)
	}
	if c.ElementSize > math.MaxInt/c.Slots {
		return fmt.Errorf("%w: slots=%d * element=%d overflows int",
			ErrInvalidSize, c.Slots, c.ElementSize)
	}
	if c.Slots%c.EnqueueBatch != 0 || c.Slots%c.DequeueBatch != 0 {
		return fmt.Errorf("%w: slots=%d is not a multiple of enqueue=%d and dequeue=%d",
			ErrBatchMismatch, c.Slots, c.EnqueueBatch, c.DequeueBatch)
	}
	if c.DequeueBatch > c.Cap() {
		return fmt.Errorf("%w: dequeue=%d exceeds usable capacity %d",
			ErrBatchMismatch, c.DequeueBatch, c.Cap())
	}
	return nil
}
