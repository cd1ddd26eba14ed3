package poll

import "time"

// Every fires once interval has elapsed, but reads the clock only on every
// n-th call to Tick. Hot loops use it as a cheap deadline.
//
// Not safe for concurrent use; each loop owns its own Every.
type Every struct {
	interval int64 // nanoseconds
	n        int
	count    int
	last     int64
}

// NewEvery creates an Every that checks the clock once per n calls.
func NewEvery(interval time.Duration, n int) *Every {
	if n < 1 {
		n = 1
	}
	return &Every{
		interval: int64(interval),
		n:        n,
		last:     nanotime(),
	}
}

// Tick returns true if the interval has elapsed since construction or the
// previous tick. Between clock checks it returns false immediately.
func (e *Every) Tick() bool {
	e.count++
	if e.count < e.n {
		return false
	}
	e.count = 0

	now := nanotime()
	if now-e.last >= e.interval {
		e.last = now
		return true
	}
	return false
}

// Reset restarts the interval from now.
func (e *Every) Reset() {
	e.count = 0
	e.last = nanotime()
}

// Interval returns the tick interval.
func (e *Every) Interval() time.Duration {
	return time.Duration(e.interval)
}
