// Package affinity pins the calling goroutine to a CPU.
//
// Platform-specific implementations live in affinity_linux.go and
// affinity_other.go. A pinned producer and consumer on separate cores keep
// the two queue cursors bouncing between exactly two caches.
package affinity

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned on platforms without thread affinity support.
var ErrUnsupported = errors.New("affinity: not supported on this platform")

// Pin locks the calling goroutine to its OS thread and binds that thread to
// cpu. The returned release func restores the thread's previous CPU mask
// and then unlocks the thread, so the runtime can reuse it unrestricted.
//
// release must be called from the same goroutine. On error the goroutine
// is left unlocked.
func Pin(cpu int) (release func(), err error) {
	runtime.LockOSThread()
	restore, err := pinPlatform(cpu)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		restore()
		runtime.UnlockOSThread()
	}, nil
}
