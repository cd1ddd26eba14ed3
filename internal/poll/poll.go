// Package poll provides the caller-side wait strategy for the batched queue.
//
// The queue itself never blocks: AcquireWrite and AcquireRead return false
// when no progress is possible. This package turns those into spin loops
// with backoff that give up once a Canceler fires:
//   - Canceler: stop signal polled between attempts (Flag, Context)
//   - AcquireWrite / AcquireRead: spin until a window or cancellation
//   - Spin: busy-wait delay, used to skew producer/consumer speeds
//   - Every: clock check amortized over N calls, for deadlines in hot loops
package poll

import "github.com/randomizedcoder/batched-spsc-queue/internal/queue"

// Canceler provides cancellation signaling to polling loops.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Done() concurrently
//   - Cancel() may be called concurrently with Done()
type Canceler interface {
	// Done returns true if cancellation has been triggered.
	Done() bool

	// Cancel triggers cancellation. Safe to call multiple times.
	Cancel()
}

// Producer is the write side of a batched queue.
type Producer interface {
	AcquireWrite() (queue.Window, bool)
}

// Consumer is the read side of a batched queue.
type Consumer interface {
	AcquireRead() (queue.Window, bool)
}
