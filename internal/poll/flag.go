package poll

import "sync/atomic"

// Flag is a Canceler backed by an atomic.Bool.
//
// Done() is a single atomic load, cheap enough to check on every failed
// acquire in a spin loop.
type Flag struct {
	done atomic.Bool
}

// NewFlag creates a Flag that has not fired.
func NewFlag() *Flag {
	return &Flag{}
}

// Done returns true if Cancel has been called.
func (f *Flag) Done() bool {
	return f.done.Load()
}

// Cancel fires the flag.
func (f *Flag) Cancel() {
	f.done.Store(true)
}

// Reset clears the flag so it can be reused between runs.
// Not safe to call concurrently with Done() or Cancel().
func (f *Flag) Reset() {
	f.done.Store(false)
}
