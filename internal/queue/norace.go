//go:build !race

package queue

// RaceEnabled reports whether the race detector is active.
const RaceEnabled = false
