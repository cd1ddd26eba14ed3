//go:build race

package queue

// RaceEnabled reports whether the race detector is active. The detector
// does not model the relaxed/acquire/release cursor protocol, so payload
// accesses across goroutines show up as races.
const RaceEnabled = true
