package poll

import (
	"code.hybscloud.com/spin"

	"github.com/randomizedcoder/batched-spsc-queue/internal/queue"
)

// AcquireWrite spins until q hands out a write window or c is done.
// Returns false only on cancellation.
//
// c is checked after each failed attempt, so a window that is already
// available is returned even if c has fired.
func AcquireWrite(q Producer, c Canceler) (queue.Window, bool) {
	sw := spin.Wait{}
	for {
		if w, ok := q.AcquireWrite(); ok {
			return w, true
		}
		if c.Done() {
			return queue.Window{}, false
		}
		sw.Once()
	}
}

// AcquireRead spins until q hands out a read window or c is done.
// Returns false only on cancellation.
func AcquireRead(q Consumer, c Canceler) (queue.Window, bool) {
	sw := spin.Wait{}
	for {
		if w, ok := q.AcquireRead(); ok {
			return w, true
		}
		if c.Done() {
			return queue.Window{}, false
		}
		sw.Once()
	}
}
