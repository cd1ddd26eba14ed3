package queue

import (
	"fmt"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"golang.org/x/sys/cpu"
)

// Batched is a lock-free batched SPSC (Single-Producer Single-Consumer)
// ring queue.
//
// WARNING: This queue is NOT safe for multiple producers or multiple consumers.
// Using it incorrectly will cause data races and undefined behavior.
//
// The two cursors are the only shared mutable state. Each has exactly one
// writer, so the owner reads its own cursor relaxed and publishes it with a
// release store; the other side reads it with an acquire load. Payload
// bytes written before a release store are visible to whoever observes
// the new cursor value.
type Batched struct {
	slots    uint64
	enqBatch uint64
	deqBatch uint64
	elemSize uint64
	buf      []byte // not owned
	guard    bool

	_ cpu.CacheLinePad

	write atomix.Uint64 // Written by producer, read by consumer

	_ cpu.CacheLinePad

	read atomix.Uint64 // Written by consumer, read by producer

	_ cpu.CacheLinePad

	// Producer-local state
	writeHeld  bool
	pushActive atomic.Uint32

	_ cpu.CacheLinePad

	// Consumer-local state
	readHeld  bool
	popActive atomic.Uint32

	_ cpu.CacheLinePad
}

// New creates a Batched queue over buf.
//
// buf must hold at least cfg.BufferSize() bytes and must stay alive, and
// untouched by anything but the queue's users, for the queue's lifetime.
// The queue keeps a reference to buf and never reallocates it.
func New(cfg Config, buf []byte) (*Batched, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	size := cfg.BufferSize()
	if len(buf) < size {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(buf), size)
	}

	return &Batched{
		slots:    uint64(cfg.Slots),
		enqBatch: uint64(cfg.EnqueueBatch),
		deqBatch: uint64(cfg.DequeueBatch),
		elemSize: uint64(cfg.ElementSize),
		buf:      buf[:size:size],
		guard:    cfg.Guard,
	}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config, buf []byte) *Batched {
	q, err := New(cfg, buf)
	if err != nil {
		panic(err)
	}
	return q
}

// AcquireWrite returns the window for the next enqueue batch.
// Returns false if the queue is full.
//
// SPSC CONTRACT: Only ONE goroutine may call AcquireWrite() and CommitWrite().
func (q *Batched) AcquireWrite() (Window, bool) {
	if q.guard {
		q.enter(&q.pushActive, "queue: concurrent producer on SPSC Batched - only one producer allowed")
	}

	// Own cursor: relaxed. Consumer's cursor: acquire, so the slots it
	// released are really done being read.
	w := q.write.LoadRelaxed()
	r := q.read.LoadAcquire()

	// One batch stays empty so that write == read always means empty.
	if q.slots-q.distance(w, r) < q.enqBatch+1 {
		if q.guard {
			q.pushActive.Store(0)
		}
		return Window{}, false
	}

	// Only Prefill leaves the cursor at slots.
	if w == q.slots {
		w = 0
	}

	q.writeHeld = true
	return q.window(w, q.enqBatch), true
}

// CommitWrite publishes the batch written through the last window returned
// by AcquireWrite. The window must not be used afterwards.
//
// Panics if there is no outstanding window.
func (q *Batched) CommitWrite() {
	if !q.writeHeld {
		panic("queue: CommitWrite without AcquireWrite")
	}
	q.writeHeld = false

	next := q.write.LoadRelaxed() + q.enqBatch
	if next >= q.slots {
		next -= q.slots
	}

	// Publish (store-release): payload bytes happen-before the new cursor.
	q.write.StoreRelease(next)

	if q.guard {
		q.pushActive.Store(0)
	}
}

// AcquireRead returns the window for the next dequeue batch.
// Returns false if fewer than DequeueBatch slots are occupied.
//
// SPSC CONTRACT: Only ONE goroutine may call AcquireRead() and CommitRead().
func (q *Batched) AcquireRead() (Window, bool) {
	if q.guard {
		q.enter(&q.popActive, "queue: concurrent consumer on SPSC Batched - only one consumer allowed")
	}

	w := q.write.LoadAcquire()
	r := q.read.LoadRelaxed()

	if q.distance(w, r) < q.deqBatch {
		if q.guard {
			q.popActive.Store(0)
		}
		return Window{}, false
	}

	q.readHeld = true
	return q.window(r, q.deqBatch), true
}

// CommitRead releases the batch read through the last window returned by
// AcquireRead. The window must not be used afterwards.
//
// Panics if there is no outstanding window.
func (q *Batched) CommitRead() {
	if !q.readHeld {
		panic("queue: CommitRead without AcquireRead")
	}
	q.readHeld = false

	next := q.read.LoadRelaxed() + q.deqBatch
	if next == q.slots {
		next = 0
	}

	// Consume (store-release): our reads are done before the producer
	// may reuse the slots.
	q.read.StoreRelease(next)

	if q.guard {
		q.popActive.Store(0)
	}
}

// Write acquires a write window, passes it to fn and commits.
// Returns false without calling fn if the queue is full.
//
// The window must not escape fn.
func (q *Batched) Write(fn func(Window)) bool {
	w, ok := q.AcquireWrite()
	if !ok {
		return false
	}
	fn(w)
	q.CommitWrite()
	return true
}

// Read acquires a read window, passes it to fn and commits.
// Returns false without calling fn if not enough data is queued.
//
// The window must not escape fn.
func (q *Batched) Read(fn func(Window)) bool {
	w, ok := q.AcquireRead()
	if !ok {
		return false
	}
	fn(w)
	q.CommitRead()
	return true
}

// Occupancy returns the number of committed but unread slots.
// Safe from any goroutine; the value may be stale by the time it is used.
func (q *Batched) Occupancy() int {
	w := q.write.LoadAcquire()
	r := q.read.LoadAcquire()
	return int(q.distance(w, r))
}

// Reset empties the queue.
//
// Not safe to call concurrently with any other method. Intended for tests
// and benchmarks.
func (q *Batched) Reset() {
	q.writeHeld = false
	q.readHeld = false
	q.pushActive.Store(0)
	q.popActive.Store(0)
	q.write.StoreRelease(0)
	q.read.StoreRelease(0)
}

// Prefill marks every slot as occupied without writing any payload, so a
// consumer can be benchmarked without a producer. Slots hold whatever the
// backing buffer already contains.
//
// After Prefill the producer sees a full queue and, as long as nothing is
// written, reads never run dry: the read cursor wraps back onto an
// occupancy of Slots. Once the consumer frees a batch the producer may
// write into it again. Call Reset to return to normal operation.
//
// Not safe to call concurrently with any other method. Intended for tests
// and benchmarks.
func (q *Batched) Prefill() {
	q.writeHeld = false
	q.readHeld = false
	q.pushActive.Store(0)
	q.popActive.Store(0)
	q.write.StoreRelease(q.slots)
	q.read.StoreRelease(0)
}

// Slots returns the number of slots in the ring.
func (q *Batched) Slots() int { return int(q.slots) }

// EnqueueBatch returns the number of slots per write window.
func (q *Batched) EnqueueBatch() int { return int(q.enqBatch) }

// DequeueBatch returns the number of slots per read window.
func (q *Batched) DequeueBatch() int { return int(q.deqBatch) }

// ElementSize returns the slot size in bytes.
func (q *Batched) ElementSize() int { return int(q.elemSize) }

// Cap returns the number of slots that can be occupied at once.
func (q *Batched) Cap() int { return int(q.slots - q.enqBatch) }

// distance returns (w - r) mod slots. w may equal slots after Prefill.
func (q *Batched) distance(w, r uint64) uint64 {
	if w < r {
		return w + q.slots - r
	}
	return w - r
}

func (q *Batched) window(idx, n uint64) Window {
	off := idx * q.elemSize
	end := off + n*q.elemSize
	return Window{buf: q.buf[off:end:end], size: int(q.elemSize)}
}

// enter is the SPSC guard: panic if the side is already active.
func (q *Batched) enter(active *atomic.Uint32, msg string) {
	if !active.CompareAndSwap(0, 1) {
		panic(msg)
	}
}
