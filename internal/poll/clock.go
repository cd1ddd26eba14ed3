package poll

import (
	"time"
	_ "unsafe" // Required for go:linkname
)

// nanotime returns the current monotonic time in nanoseconds.
// Cheaper than time.Now(): a single int64, no time.Time construction.
//
// Note: This uses go:linkname to access an internal runtime function.
// It may break in future Go versions, though it has been stable.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// Spin busy-waits for d without yielding the OS thread.
//
// Unlike time.Sleep the goroutine stays on its core, which is what a
// producer or consumer pinned to a CPU wants when it simulates work.
func Spin(d time.Duration) {
	if d <= 0 {
		return
	}
	end := nanotime() + int64(d)
	for nanotime() < end {
	}
}
