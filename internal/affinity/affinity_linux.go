//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinPlatform binds the calling thread to cpu and returns a func that
// puts back the mask the thread had before.
func pinPlatform(cpu int) (restore func(), err error) {
	if cpu < 0 {
		return nil, fmt.Errorf("affinity: invalid cpu %d", cpu)
	}

	// pid 0 is the calling thread
	var old unix.CPUSet
	if err := unix.SchedGetaffinity(0, &old); err != nil {
		return nil, fmt.Errorf("affinity: sched_getaffinity: %w", err)
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpu, err)
	}

	return func() {
		// Best effort: the old mask was valid a moment ago.
		_ = unix.SchedSetaffinity(0, &old)
	}, nil
}
